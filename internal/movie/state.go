package movie

// Phase identifies the active ViewState variant.
type Phase int

const (
	PhaseLoading Phase = iota
	PhaseNotFound
	PhaseLoaded
)

func (p Phase) String() string {
	switch p {
	case PhaseLoading:
		return "loading"
	case PhaseNotFound:
		return "not_found"
	case PhaseLoaded:
		return "loaded"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transition happens for the current id.
func (p Phase) Terminal() bool {
	return p == PhaseNotFound || p == PhaseLoaded
}

// ViewState is the three-variant view-model: Loading, NotFound or Loaded.
// The zero value is Loading.
type ViewState struct {
	phase  Phase
	record Record
}

// Loading returns the Loading variant.
func Loading() ViewState { return ViewState{phase: PhaseLoading} }

// NotFound returns the NotFound variant.
func NotFound() ViewState { return ViewState{phase: PhaseNotFound} }

// Loaded returns the Loaded variant holding r.
func Loaded(r Record) ViewState { return ViewState{phase: PhaseLoaded, record: r} }

// Phase returns the active variant.
func (s ViewState) Phase() Phase { return s.phase }

// Record returns the loaded record. ok is false unless the state is Loaded.
func (s ViewState) Record() (Record, bool) {
	if s.phase != PhaseLoaded {
		return Record{}, false
	}
	return s.record, true
}
