package registry

import "github.com/callscribe/callscribe/internal/speech/engine"

// Diarizers is the global registry of diarization backends.
var Diarizers = New[engine.Diarizer]()
