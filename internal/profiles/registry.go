// Package profiles implements the ProfileRegistry (spec.md §4.1): it turns
// the configuration's named rendition profiles into immutable values and
// resolves them for callers by name.
package profiles

import (
	"fmt"

	"mediaforge/internal/config"
)

// Fit mirrors spec.md §3 VARIANT-DEF.fit.
type Fit string

const (
	FitCover   Fit = "COVER"
	FitContain Fit = "CONTAIN"
)

// Codec mirrors spec.md §3 codecs.
type Codec string

const (
	CodecJPEG Codec = "JPEG"
	CodecWebP Codec = "WEBP"
	CodecAVIF Codec = "AVIF"
	CodecPNG  Codec = "PNG"
)

// VariantDef is an in-flight value object (spec.md §3).
type VariantDef struct {
	TargetW int
	TargetH int
	Fit     Fit
}

// Profile is an in-flight value object (spec.md §3). It is immutable once
// built by the registry.
type Profile struct {
	Name                string
	KeyPrefix           string
	KeepOriginal        bool
	MaxOriginalLongEdge int
	Codecs              []Codec
	// VariantNames preserves configuration order; Variants is keyed by name.
	VariantNames []string
	Variants     map[string]VariantDef
}

// ErrProfileUnknown is returned by Lookup for an absent profile name
// (spec.md §4.1, §7 — a programming error, never retried).
type ErrProfileUnknown struct{ Name string }

func (e ErrProfileUnknown) Error() string {
	return fmt.Sprintf("profile %q is not registered", e.Name)
}

// Registry serves immutable Profile records by name.
type Registry struct {
	profiles map[string]Profile
}

var allCodecs = map[string]Codec{
	"JPEG": CodecJPEG,
	"WEBP": CodecWebP,
	"AVIF": CodecAVIF,
	"PNG":  CodecPNG,
}

// New builds a Registry from the configuration mapping. Unknown codec names
// are silently filtered; JPEG is always implicitly present at the head of
// rendering order regardless of what the configuration lists.
func New(cfgProfiles map[string]config.Profile) *Registry {
	out := make(map[string]Profile, len(cfgProfiles))

	for name, p := range cfgProfiles {
		codecs := []Codec{CodecJPEG}
		seen := map[Codec]bool{CodecJPEG: true}
		for _, raw := range p.Codecs {
			c, ok := allCodecs[raw]
			if !ok || seen[c] {
				continue
			}
			seen[c] = true
			codecs = append(codecs, c)
		}

		variantNames := make([]string, 0, len(p.Variants))
		variants := make(map[string]VariantDef, len(p.Variants))
		for _, vDef := range p.Variants {
			fit := FitContain
			if vDef.Fit == string(FitCover) {
				fit = FitCover
			}
			variants[vDef.Name] = VariantDef{TargetW: vDef.Width, TargetH: vDef.Height, Fit: fit}
			variantNames = append(variantNames, vDef.Name)
		}

		out[name] = Profile{
			Name:                name,
			KeyPrefix:           p.Prefix,
			KeepOriginal:        p.KeepOriginal,
			MaxOriginalLongEdge: p.MaxOriginalLongEdge,
			Codecs:              codecs,
			VariantNames:        variantNames,
			Variants:            variants,
		}
	}

	return &Registry{profiles: out}
}

// Lookup returns the named profile or ErrProfileUnknown.
func (r *Registry) Lookup(name string) (Profile, error) {
	p, ok := r.profiles[name]
	if !ok {
		return Profile{}, ErrProfileUnknown{Name: name}
	}
	return p, nil
}
