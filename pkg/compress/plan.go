package compress

// Kind selects the plan family for a column's element representation. The
// planner does not know about column type tags; codecs map themselves onto
// the kind whose pre-transform fits their elements.
type Kind int

const (
	// KindLogical plans use the LOGIC64 bit-pack pipelines.
	KindLogical Kind = iota
	// KindInt32 plans use 4-byte shuffle pipelines.
	KindInt32
	// KindDouble plans use 8-byte shuffle pipelines.
	KindDouble
	// KindBytes plans use the plain byte pipelines (character heaps).
	KindBytes
)

// Stage is one compressor arm of a plan.
type Stage struct {
	Algo      AlgoID
	Intensity int
}

// Plan describes how a column's blocks are compressed: a primary arm, an
// optional secondary (stronger) arm, and the percentage of blocks routed
// through the secondary. A Plan is a value; construct once per column and
// copy freely.
type Plan struct {
	Primary   Stage
	Secondary Stage
	Mix       int
}

// StageFor returns the arm used for the given block index. Block i goes to
// the secondary arm iff ((i+1)*Mix) % 100 < Mix: exactly Mix per 100 blocks,
// block 0 on the primary whenever Mix < 100, every block on the secondary at
// Mix = 100. Readers must not depend on this choice; each block records the
// algorithm it was stored under.
func (p Plan) StageFor(block int) Stage {
	if p.Mix <= 0 {
		return p.Primary
	}
	if p.Mix >= 100 {
		return p.Secondary
	}
	if ((block+1)*p.Mix)%100 < p.Mix {
		return p.Secondary
	}
	return p.Primary
}

// planAlgos is the per-kind algorithm family: the pass-through form, the
// fast arm and the strong arm.
var planAlgos = map[Kind][3]AlgoID{
	KindLogical: {AlgoLogic64, AlgoLZ4Logic64, AlgoZstdLogic64},
	KindInt32:   {AlgoIdentity, AlgoLZ4Shuf4, AlgoZstdShuf4},
	KindDouble:  {AlgoIdentity, AlgoLZ4Shuf8, AlgoZstdShuf8},
	KindBytes:   {AlgoIdentity, AlgoLZ4, AlgoZstd},
}

// PlanFor maps a user compression level in 0..100 onto a compressor plan
// for the given kind. Levels outside the range are clamped; the planner
// never fails.
//
//	L = 0      pass-through stage only (bit-pack for logicals)
//	1..50      primary pass-through, secondary fast arm at full intensity,
//	           mix 2*L
//	51..100    primary fast arm at full intensity, secondary strong arm at
//	           intensity 30 + 7*((L-50)/5), mix 2*(L-50)
func PlanFor(kind Kind, level int) Plan {
	if level < 0 {
		level = 0
	}
	if level > 100 {
		level = 100
	}

	algos := planAlgos[kind]
	passthrough, fast, strong := algos[0], algos[1], algos[2]

	if level == 0 {
		return Plan{Primary: Stage{Algo: passthrough}}
	}

	if level <= 50 {
		return Plan{
			Primary:   Stage{Algo: passthrough},
			Secondary: Stage{Algo: fast, Intensity: 100},
			Mix:       2 * level,
		}
	}

	return Plan{
		Primary:   Stage{Algo: fast, Intensity: 100},
		Secondary: Stage{Algo: strong, Intensity: 30 + 7*((level-50)/5)},
		Mix:       2 * (level - 50),
	}
}
