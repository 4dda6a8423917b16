package registry

import "github.com/callscribe/callscribe/internal/speech/engine"

// ASR is the global registry of transcription backends.
var ASR = New[engine.Transcriber]()
