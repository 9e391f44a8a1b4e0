package scapeid

import (
	"fmt"
	"sort"
	"strings"
)

// Family groups benchmark environment identifiers by simulator backend.
type Family string

const (
	FamilyToybox Family = "toybox"
	FamilyAtari  Family = "atari"
	FamilyRetro  Family = "retro"
)

// Registry maps environment families to their benchmark identifiers. It is
// built once, explicitly, and never mutated afterwards.
type Registry struct {
	families map[Family][]string
	byID     map[string]Family
	order    []Family
}

func NewRegistry(entries map[Family][]string) (*Registry, error) {
	r := &Registry{
		families: make(map[Family][]string, len(entries)),
		byID:     make(map[string]Family),
	}

	names := make([]Family, 0, len(entries))
	for family := range entries {
		names = append(names, family)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })

	for _, family := range names {
		members := entries[family]
		if len(members) == 0 {
			return nil, fmt.Errorf("family %s has no members", family)
		}
		copied := make([]string, 0, len(members))
		for _, id := range members {
			id = strings.TrimSpace(id)
			if id == "" {
				return nil, fmt.Errorf("family %s has an empty member id", family)
			}
			if existing, ok := r.byID[id]; ok {
				return nil, fmt.Errorf("duplicate environment id %s (families %s and %s)", id, existing, family)
			}
			r.byID[id] = family
			copied = append(copied, id)
		}
		r.families[family] = copied
		r.order = append(r.order, family)
	}
	return r, nil
}

// DefaultRegistry lists the environments the harness knows how to drive.
func DefaultRegistry() *Registry {
	r, err := NewRegistry(map[Family][]string{
		FamilyToybox: {
			"AmidarToyboxNoFrameskip-v4",
			"BreakoutToyboxNoFrameskip-v4",
		},
		FamilyAtari: {
			"AmidarNoFrameskip-v4",
			"BreakoutNoFrameskip-v4",
		},
		FamilyRetro: {
			"BubbleBobble-Nes",
			"SuperMarioBros-Nes",
			"TwinBee3PokoPokoDaimaou-Nes",
			"SpaceHarrier-Nes",
			"SonicTheHedgehog-Genesis",
			"Vectorman-Genesis",
			"FinalFight-Snes",
			"SpaceInvaders-Snes",
		},
	})
	if err != nil {
		panic(err)
	}
	return r
}

// Resolve maps an environment identifier to its family. Passing a family
// name resolves to that family's first registered member.
func (r *Registry) Resolve(envID string) (Family, string, error) {
	envID = strings.TrimSpace(envID)
	if envID == "" {
		return "", "", fmt.Errorf("environment id is required")
	}
	if family, ok := r.byID[envID]; ok {
		return family, envID, nil
	}
	if members, ok := r.families[Family(envID)]; ok {
		return Family(envID), members[0], nil
	}
	return "", "", fmt.Errorf("environment id %s is not registered", envID)
}

func (r *Registry) Families() []Family {
	return append([]Family(nil), r.order...)
}

func (r *Registry) Members(family Family) []string {
	return append([]string(nil), r.families[family]...)
}
