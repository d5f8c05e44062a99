// Package espeak speaks through libespeak-ng.
package espeak

/*
#cgo LDFLAGS: -lespeak-ng
#include <stdlib.h>
#include <string.h>
#include <espeak-ng/speak_lib.h>

int
espeak_say(const char *text, const char *lang, int rate, int volume)
{
	if (!text)
	{ return -1; }

	if (espeak_Initialize(AUDIO_OUTPUT_SYNCH_PLAYBACK, 500, NULL, 0) < 0)
	{ return -2; }

	espeak_VOICE specs;
	memset(&specs, 0, sizeof(specs));
	specs.languages = lang;
	espeak_SetVoiceByProperties(&specs);

	espeak_SetParameter(espeakRATE, rate, 0);
	espeak_SetParameter(espeakVOLUME, volume, 0);

	espeak_Synth(text, strlen(text) + 1, 0, POS_CHARACTER, 0, espeakCHARS_AUTO, NULL, NULL);
	espeak_Synchronize();
	espeak_Terminate();

	return 0;
}
*/
import "C"

import (
	"fmt"
	"math"
	"sync"
	"unsafe"

	"jarvis/internal/speech"
)

// espeak keeps global state between Initialize and Terminate.
var mu sync.Mutex

// Engine implements speech.Engine.
type Engine struct{}

func (Engine) Say(u speech.Utterance) error {
	if u.Text == "" {
		return nil
	}

	lang := u.Language
	if lang == "" {
		lang = "en"
	}

	ctext := C.CString(u.Text)
	defer C.free(unsafe.Pointer(ctext))
	clang := C.CString(lang)
	defer C.free(unsafe.Pointer(clang))

	// espeak's volume runs 0..200 with 100 as normal.
	volume := int(math.Round(u.Volume * 100))

	mu.Lock()
	rc := C.espeak_say(ctext, clang, C.int(u.Rate), C.int(volume))
	mu.Unlock()

	if rc != 0 {
		return fmt.Errorf("espeak_say failed: %d", int(rc))
	}
	return nil
}
