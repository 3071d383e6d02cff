//
// Copyright (c) 2025-2026 The privten authors.
//
// All rights reserved.
//

package mpc

import (
	"encoding/json"
	"os"

	"golang.org/x/xerrors"

	"github.com/privten/privten/ring"
)

// storedTensor is the on-disk plaintext form. Only the owner ever
// reads or writes it.
type storedTensor struct {
	Shape  []int     `json:"shape"`
	Values []float64 `json:"values"`
}

// Save opens the tensor to the owner party, which writes the
// plaintext as JSON. No other party observes the values. Every party
// must call Save at the same point.
func Save(path string, t *ArithTensor, owner int) error {
	vals, err := t.RevealTo(owner)
	if err != nil {
		return err
	}
	if t.s.Rank() != owner {
		return nil
	}
	data, err := json.Marshal(storedTensor{
		Shape:  t.Shape(),
		Values: vals,
	})
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}

// Load reads the plaintext JSON on the owner party and re-shares it.
// Non-owners supply only the expected shape; the file contents never
// reach them in the clear.
func Load(s *Session, path string, shape []int, owner int) (
	*ArithTensor, error) {

	var vals []float64
	if s.Rank() == owner {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		var st storedTensor
		if err := json.Unmarshal(data, &st); err != nil {
			return nil, err
		}
		if len(st.Values) != ring.Numel(shape) {
			return nil, xerrors.Errorf(
				"mpc: %s holds %d values, expected %d",
				path, len(st.Values), ring.Numel(shape))
		}
		vals = st.Values
	}
	return Share(s, vals, shape, owner)
}
