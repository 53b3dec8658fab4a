package bindgen

import "fbind/internal/manifest"

// Knob is the backend-specific configuration setter surfaced to callers.
type Knob uint8

const (
	KnobNone    Knob = iota
	KnobThreads      // futhark_context_config_set_num_threads
	KnobDevice       // futhark_context_config_set_device
)

func (k Knob) String() string {
	switch k {
	case KnobThreads:
		return "threads"
	case KnobDevice:
		return "device"
	default:
		return "none"
	}
}

// KnobFor returns the knob of a backend. Unknown backends have none.
func KnobFor(b manifest.Backend) Knob {
	switch b {
	case manifest.BackendMulticore, manifest.BackendISPC:
		return KnobThreads
	case manifest.BackendCUDA, manifest.BackendOpenCL, manifest.BackendHIP:
		return KnobDevice
	default:
		return KnobNone
	}
}

// Decl returns the setter declaration of k, nil for KnobNone.
func (k Knob) Decl(s Spelling) *Decl {
	switch k {
	case KnobThreads:
		return Declare("futhark_context_config_set_num_threads", s.Void(),
			P("cfg", s.Config()), P("n", s.Int()))
	case KnobDevice:
		return Declare("futhark_context_config_set_device", s.Void(),
			P("cfg", s.Config()), P("device", s.CString()))
	default:
		return nil
	}
}

// LifecycleDecls returns the context and configuration declarations shared
// by every manifest, followed by the knob setter when k has one.
func LifecycleDecls(s Spelling, k Knob) []*Decl {
	cfg, ctx := P("cfg", s.Config()), P("ctx", s.Context())
	ds := []*Decl{
		Declare("futhark_context_config_new", s.Config()),
		Declare("futhark_context_config_free", s.Void(), cfg),
		Declare("futhark_context_config_set_debugging", s.Void(), cfg, P("flag", s.Int())),
		Declare("futhark_context_config_set_profiling", s.Void(), cfg, P("flag", s.Int())),
		Declare("futhark_context_config_set_logging", s.Void(), cfg, P("flag", s.Int())),
		Declare("futhark_context_config_set_cache_file", s.Void(), cfg, P("path", s.CString())),
		Declare("futhark_context_new", s.Context(), cfg),
		Declare("futhark_context_free", s.Void(), ctx),
		Declare("futhark_context_sync", s.Status(), ctx),
		Declare("futhark_context_clear_caches", s.Status(), ctx),
		Declare("futhark_context_pause_profiling", s.Void(), ctx),
		Declare("futhark_context_unpause_profiling", s.Void(), ctx),
		Declare("futhark_context_get_error", s.OwnedCString(), ctx),
		Declare("futhark_context_report", s.OwnedCString(), ctx),
		Declare("free", s.Void(), P("ptr", s.VoidPtr())),
	}
	if d := k.Decl(s); d != nil {
		ds = append(ds, d)
	}
	return ds
}
