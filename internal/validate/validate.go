// Package validate implements the sample validator, normalizer, and
// deduplicator: it turns a flat stream of incoming samples into
// entries grouped by their base-resolution cell, ready for
// internal/aggregate.
package validate

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"

	"github.com/nrg-champ/geohgc/internal/canonical"
	"github.com/nrg-champ/geohgc/internal/config"
	"github.com/nrg-champ/geohgc/internal/hexgrid"
	"github.com/nrg-champ/geohgc/internal/model"
)

// InvalidSample is one side-channel record collected under mark mode.
// Field names the offending sensor/cell field for low-cardinality
// metrics labeling; Reason carries the full, value-bearing message.
type InvalidSample struct {
	Sample model.Sample `json:"sample"`
	Field  string       `json:"field"`
	Reason string       `json:"reason"`
}

// Result is the validated, normalized, deduplicated output of Run.
type Result struct {
	EntriesByCell  map[hexgrid.CellID][]model.Entry
	InvalidSamples []InvalidSample
}

// Run validates, normalizes to baseRes, and deduplicates samples per
// cell, applying mode to every rejection (including within nested
// samples arrays).
func Run(samples []model.Sample, baseRes int, mode config.OnInvalidMode) (Result, error) {
	res := Result{EntriesByCell: map[hexgrid.CellID][]model.Entry{}}
	seen := map[hexgrid.CellID]map[string]bool{}

	for _, s := range samples {
		entry, cell, ok, err := processSample(s, baseRes, mode, &res.InvalidSamples)
		if err != nil {
			return Result{}, err
		}
		if !ok {
			continue
		}

		cellSeen := seen[cell]
		if cellSeen == nil {
			cellSeen = map[string]bool{}
			seen[cell] = cellSeen
		}
		key, err := dedupKey(s, cell)
		if err != nil {
			return Result{}, err
		}
		if cellSeen[key] {
			continue
		}
		cellSeen[key] = true
		res.EntriesByCell[cell] = append(res.EntriesByCell[cell], entry)
	}

	for cell, entries := range res.EntriesByCell {
		sort.SliceStable(entries, func(i, j int) bool { return entries[i].Timestamp < entries[j].Timestamp })
		res.EntriesByCell[cell] = entries
	}
	return res, nil
}

func processSample(s model.Sample, baseRes int, mode config.OnInvalidMode, invalid *[]InvalidSample) (model.Entry, hexgrid.CellID, bool, error) {
	if verr := validateOwnFields(s); verr != nil {
		switch mode {
		case config.OnInvalidThrow:
			return model.Entry{}, "", false, verr
		case config.OnInvalidMark:
			*invalid = append(*invalid, InvalidSample{Sample: s, Field: fieldOf(verr), Reason: verr.Error()})
			return model.Entry{}, "", false, nil
		default:
			return model.Entry{}, "", false, nil
		}
	}

	normalized := s.GeoCellID
	if hexgrid.Resolution(s.GeoCellID) != baseRes {
		parent, perr := hexgrid.ToParent(s.GeoCellID, baseRes)
		if perr != nil {
			return model.Entry{}, "", false, perr
		}
		normalized = parent
	}

	nested, nerr := processNested(s.Samples, mode, invalid)
	if nerr != nil {
		return model.Entry{}, "", false, nerr
	}

	entry := model.Entry{
		Timestamp: s.Timestamp,
		Issuer:    s.Issuer,
		CO2:       s.CO2,
		PM25:      s.PM25,
		TempC:     s.TempC,
		Humidity:  s.Humidity,
		Samples:   nested,
	}
	return entry, normalized, true, nil
}

// processNested applies the same validation mode recursively to inner
// samples arrays: each nested reading shares its parent's cell
// context, so only sensor bounds are re-checked here.
func processNested(samples []model.Sample, mode config.OnInvalidMode, invalid *[]InvalidSample) ([]model.Entry, error) {
	if len(samples) == 0 {
		return nil, nil
	}
	out := make([]model.Entry, 0, len(samples))
	for _, s := range samples {
		if err := validateSensorRanges(s); err != nil {
			switch mode {
			case config.OnInvalidThrow:
				return nil, err
			case config.OnInvalidMark:
				*invalid = append(*invalid, InvalidSample{Sample: s, Field: fieldOf(err), Reason: err.Error()})
				continue
			default:
				continue
			}
		}
		nested, err := processNested(s.Samples, mode, invalid)
		if err != nil {
			return nil, err
		}
		out = append(out, model.Entry{
			Timestamp: s.Timestamp,
			Issuer:    s.Issuer,
			CO2:       s.CO2,
			PM25:      s.PM25,
			TempC:     s.TempC,
			Humidity:  s.Humidity,
			Samples:   nested,
		})
	}
	return out, nil
}

// fieldOf extracts the offending field name from a validation error,
// falling back to "unknown" for any other error type.
func fieldOf(err error) string {
	if verr, ok := err.(*model.ValidationError); ok {
		return verr.Field
	}
	return "unknown"
}

func validateOwnFields(s model.Sample) error {
	if !hexgrid.Valid(s.GeoCellID) {
		return &model.ValidationError{Cell: string(s.GeoCellID), Field: "geoCellId", Reason: "invalid cell id"}
	}
	return validateSensorRanges(s)
}

func validateSensorRanges(s model.Sample) error {
	checks := []struct {
		name string
		v    *float64
	}{
		{"co2", s.CO2},
		{"pm25", s.PM25},
		{"temp", s.TempC},
		{"hum", s.Humidity},
	}
	for _, c := range checks {
		if c.v == nil {
			continue
		}
		rng, ok := model.DefaultSensorRanges[c.name]
		if !ok {
			continue
		}
		if *c.v < rng.Min || *c.v > rng.Max {
			return &model.ValidationError{
				Cell:   string(s.GeoCellID),
				Field:  c.name,
				Reason: fmt.Sprintf("%v out of range [%v,%v]", *c.v, rng.Min, rng.Max),
			}
		}
	}
	return nil
}

// dedupKey computes the per-cell dedup key: "issuer-timestamp" when an
// issuer is present, otherwise the sha256 hex of the canonical encoding
// of the sample with its cell id normalized. Timestamp is a required,
// non-optional field on every sample, so "carries both issuer and
// timestamp" reduces to "carries an issuer" — issuer is the only one of
// the two that can be absent.
func dedupKey(s model.Sample, normalizedCell hexgrid.CellID) (string, error) {
	if s.Issuer != "" {
		return fmt.Sprintf("%s-%d", s.Issuer, s.Timestamp), nil
	}
	cp := s
	cp.GeoCellID = normalizedCell
	payload, err := canonical.Marshal(cp)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:]), nil
}
