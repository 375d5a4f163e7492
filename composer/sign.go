package composer

import "context"

// Sign resolves a signer for every built transaction, groups indices by
// signer identity so each distinct signer is invoked once with every
// index it owns (gather_signatures), and caches the result. Sign is
// idempotent once past Build.
func (c *Composer) Sign(ctx context.Context) ([]SignedTransaction, error) {
	if c.state >= StateSigned {
		return c.signed, nil
	}
	if c.state != StateBuilt {
		return nil, &StateError{Operation: "sign", State: c.state}
	}

	order := make([]Signer, 0)
	groups := make(map[Signer][]int)
	for i, r := range c.flat {
		signer, err := c.resolveSigner(r)
		if err != nil {
			return nil, &SigningError{Message: err.Error()}
		}
		if _, ok := groups[signer]; !ok {
			order = append(order, signer)
		}
		groups[signer] = append(groups[signer], i)
	}

	signed := make([]SignedTransaction, len(c.built))
	for _, s := range order {
		indices := groups[s]
		res, err := s.Sign(ctx, c.built, indices)
		if err != nil {
			return nil, &SigningError{Message: err.Error()}
		}
		if len(res) != len(indices) {
			return nil, &SigningError{Message: "signer returned a different number of signatures than requested"}
		}
		for j, idx := range indices {
			signed[idx] = res[j]
		}
	}

	c.signed = signed
	c.state = StateSigned
	c.log.Info("composer signed group", "composer", c.id, "size", len(signed))
	return signed, nil
}
