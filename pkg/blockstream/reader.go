package blockstream

import (
	"io"

	"github.com/funjongwoo/fst/pkg/compress"
	"github.com/funjongwoo/fst/pkg/fsterrors"
	"github.com/funjongwoo/fst/pkg/pool"
)

// Read decodes elements [firstElem, firstElem+nElems) of a column whose
// block-index region starts at colOffset, writing them to dst
// (nElems*elemSize bytes). Only the blocks intersecting the range are
// touched. Head and tail blocks decompress into a scratch buffer with the
// intersecting slice copied out; fully covered interior blocks decompress
// directly into dst.
func Read(rs io.ReadSeeker, dst []byte, colOffset int64, firstElem, nElems, totalElems, elemSize, blockElems int) error {
	if nElems == 0 {
		return nil
	}
	if firstElem < 0 || firstElem+nElems > totalElems {
		return fsterrors.Newf(fsterrors.ErrorTypeArgument,
			"element range %d..%d outside column of %d elements", firstElem, firstElem+nElems, totalElems)
	}
	if len(dst) != nElems*elemSize {
		return fsterrors.Newf(fsterrors.ErrorTypeArgument,
			"destination of %d bytes does not hold %d elements of %d bytes", len(dst), nElems, elemSize)
	}

	nBlocks := BlockCount(totalElems, blockElems)
	firstBlock := firstElem / blockElems
	lastBlock := (firstElem + nElems - 1) / blockElems

	entries, err := ReadEntries(rs, colOffset, firstBlock, lastBlock-firstBlock+1, nBlocks)
	if err != nil {
		return err
	}

	scratch := pool.GetBuffer(blockElems * elemSize)
	defer pool.PutBuffer(scratch)

	for i, entry := range entries {
		block := firstBlock + i
		blockFirst := block * blockElems
		blockCount := blockElems
		if blockFirst+blockCount > totalElems {
			blockCount = totalElems - blockFirst
		}
		rawLen := blockCount * elemSize

		comp := pool.GetBuffer(int(entry.CompSize))
		if err := ReadBlockBody(rs, entry, comp); err != nil {
			pool.PutBuffer(comp)
			return err
		}

		interFirst := blockFirst
		if firstElem > interFirst {
			interFirst = firstElem
		}
		interEnd := blockFirst + blockCount
		if firstElem+nElems < interEnd {
			interEnd = firstElem + nElems
		}
		dstOff := (interFirst - firstElem) * elemSize

		if interFirst == blockFirst && interEnd == blockFirst+blockCount {
			err = compress.Decompress(dst[dstOff:dstOff+rawLen], comp, entry.Algo)
		} else {
			if err = compress.Decompress(scratch[:rawLen], comp, entry.Algo); err == nil {
				copy(dst[dstOff:],
					scratch[(interFirst-blockFirst)*elemSize:(interEnd-blockFirst)*elemSize])
			}
		}
		pool.PutBuffer(comp)
		if err != nil {
			return err
		}
	}

	return nil
}
