package plan

import (
	"math"
	"sort"
)

// allocationTolerance is how far from 100 a user supplied allocation may be
// and still count as complete.
const allocationTolerance = 1.0

func allocationTotal(a map[string]float64) float64 {
	total := 0.0
	for _, v := range a {
		if v > 0 {
			total += v
		}
	}
	return total
}

func allocationMissing(a map[string]float64) bool {
	return allocationTotal(a) < 100-allocationTolerance
}

// Cap rescales an allocation that adds up to more than 100 so it sums to
// exactly 100. Other allocations are returned unchanged.
func Cap(a map[string]float64) map[string]float64 {
	if allocationTotal(a) <= 100+allocationTolerance {
		return a
	}
	return Normalize(a, 100)
}

// Normalize scales the positive shares of weights to integers that sum to
// exactly total, using the largest remainder method. Ties go to the channel
// that sorts first.
func Normalize(weights map[string]float64, total int) map[string]float64 {
	out := map[string]float64{}
	sum := allocationTotal(weights)
	if sum <= 0 || total <= 0 {
		return out
	}

	type share struct {
		channel   string
		floor     int
		remainder float64
	}
	shares := make([]share, 0, len(weights))
	assigned := 0
	for ch, w := range weights {
		if w <= 0 {
			continue
		}
		exact := w / sum * float64(total)
		floor := int(math.Floor(exact))
		shares = append(shares, share{channel: ch, floor: floor, remainder: exact - float64(floor)})
		assigned += floor
	}
	sort.Slice(shares, func(i, j int) bool {
		if shares[i].remainder == shares[j].remainder {
			return shares[i].channel < shares[j].channel
		}
		return shares[i].remainder > shares[j].remainder
	})
	for i := 0; assigned < total; i = (i + 1) % len(shares) {
		shares[i].floor++
		assigned++
	}
	for _, s := range shares {
		if s.floor > 0 {
			out[s.channel] = float64(s.floor)
		}
	}
	return out
}

// Complete returns the allocation to merge into current given a generated
// one. An empty current allocation takes the generated shares normalized
// to 100. A partial one keeps its shares and spreads the residual over the
// generated channels it lacks.
func Complete(current, generated map[string]float64) map[string]float64 {
	if !allocationMissing(current) {
		return nil
	}
	existing := allocationTotal(current)
	if existing == 0 {
		return Normalize(generated, 100)
	}

	fresh := map[string]float64{}
	for ch, v := range generated {
		if cur, ok := current[ch]; !ok || cur <= 0 {
			fresh[ch] = v
		}
	}
	residual := int(math.Round(100 - existing))
	out := map[string]float64{}
	for ch, v := range current {
		if v > 0 {
			out[ch] = v
		}
	}
	for ch, v := range Normalize(fresh, residual) {
		out[ch] = v
	}
	return out
}
