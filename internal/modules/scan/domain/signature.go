package domain

import (
	"encoding/binary"
	"encoding/hex"

	"golang.org/x/crypto/blake2b"
)

// Signature identifies a physical symbol across frames. It ignores position
// and orientation so a moving symbol keeps its identity.
type Signature [blake2b.Size256]byte

func (s Signature) String() string {
	return hex.EncodeToString(s[:])
}

const (
	flagValid = 1 << iota
	flagMirrored
	flagInverted
	flagHasECI
	flagReaderInit
)

// Sign hashes, in order: the packed flag byte, the format ordinal, the
// content type ordinal, the symbology identifier followed by the version,
// then the raw bytes. Variable-length parts are length prefixed.
func Sign(r ReadResult) Signature {
	var flags byte
	if r.IsValid {
		flags |= flagValid
	}
	if r.IsMirrored {
		flags |= flagMirrored
	}
	if r.IsInverted {
		flags |= flagInverted
	}
	if r.HasECI {
		flags |= flagHasECI
	}
	if r.ReaderInit {
		flags |= flagReaderInit
	}

	h, _ := blake2b.New256(nil)
	buf := make([]byte, 0, 1+3*binary.MaxVarintLen64)
	buf = append(buf, flags)
	buf = binary.AppendUvarint(buf, uint64(r.Format))
	buf = binary.AppendUvarint(buf, uint64(r.ContentType))
	ident := r.SymbologyIdentifier + r.Version
	buf = binary.AppendUvarint(buf, uint64(len(ident)))
	h.Write(buf)
	h.Write([]byte(ident))
	h.Write(binary.AppendUvarint(nil, uint64(len(r.Bytes))))
	h.Write(r.Bytes)

	var sig Signature
	h.Sum(sig[:0])
	return sig
}
