package agentauth

import "sort"

// ChallengeDriver generates and grades one family of challenges.
type ChallengeDriver interface {
	Name() string
	Dimensions() []Dimension
	EstimatedHumanTimeMs(difficulty Difficulty) int64
	EstimatedAITimeMs(difficulty Difficulty) int64
	// Generate produces a public payload and the hash the submitted answer
	// must match.
	Generate(difficulty Difficulty) (*ChallengePayload, string, error)
	// Verify reports whether submitted satisfies answerHash.
	Verify(answerHash string, submitted string) (bool, error)
}

// ChallengeRegistry holds the set of registered drivers and selects among
// them by requested capability dimension.
type ChallengeRegistry struct {
	drivers map[string]ChallengeDriver
}

// NewChallengeRegistry creates an empty registry.
func NewChallengeRegistry() *ChallengeRegistry {
	return &ChallengeRegistry{drivers: make(map[string]ChallengeDriver)}
}

// Register adds a driver, keyed by its Name().
func (r *ChallengeRegistry) Register(driver ChallengeDriver) {
	r.drivers[driver.Name()] = driver
}

// Get looks up a driver by name.
func (r *ChallengeRegistry) Get(name string) (ChallengeDriver, bool) {
	d, ok := r.drivers[name]
	return d, ok
}

// List returns every registered driver.
func (r *ChallengeRegistry) List() []ChallengeDriver {
	out := make([]ChallengeDriver, 0, len(r.drivers))
	for _, d := range r.drivers {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}

// Select scores each driver by how many of the requested dimensions it
// exercises and returns the top `count` by score, descending. With no
// requested dimensions, every driver scores equally and List order applies.
func (r *ChallengeRegistry) Select(dimensions []Dimension, count int) []ChallengeDriver {
	wanted := make(map[Dimension]bool, len(dimensions))
	for _, d := range dimensions {
		wanted[d] = true
	}

	all := r.List()
	scored := make([]ChallengeDriver, len(all))
	copy(scored, all)

	score := func(d ChallengeDriver) int {
		if len(wanted) == 0 {
			return 0
		}
		n := 0
		for _, dim := range d.Dimensions() {
			if wanted[dim] {
				n++
			}
		}
		return n
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return score(scored[i]) > score(scored[j])
	})

	if count > len(scored) {
		count = len(scored)
	}
	return scored[:count]
}
