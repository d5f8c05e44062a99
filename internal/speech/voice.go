package speech

import (
	"fmt"
	"strings"
	"sync"

	"jarvis/internal/mode"
)

const (
	HumanRate    = 160
	StandardRate = 180
	// DefaultVolume is relative, 1.0 being the synthesizer's normal level.
	DefaultVolume = 0.95
)

type Style struct {
	Name   string
	Rate   int
	Volume float64
}

var styles = []Style{
	{"professional", 180, 0.9},
	{"casual", 160, 0.8},
	{"excited", 220, 1.0},
	{"calm", 150, 0.7},
}

type voiceEntry struct {
	name string
	lang string
}

var espeakVoices = []voiceEntry{
	{"english", "en"},
	{"english-us", "en-us"},
	{"english-rp", "en-gb-x-rp"},
	{"english-scottish", "en-gb-scotland"},
	{"english-indian", "en-029"},
	{"hindi", "hi"},
	{"punjabi", "pa"},
	{"spanish", "es"},
	{"french", "fr"},
	{"german", "de"},
	{"italian", "it"},
}

// modeVolume caps the speaking volume in quieter operation modes.
var modeVolume = map[mode.Mode]float64{
	mode.Silent:       0.3,
	mode.Night:        0.5,
	mode.Presentation: 0.7,
}

// Utterance is what a synthesizer is asked to say.
type Utterance struct {
	Text     string
	Language string
	Rate     int
	Volume   float64
}

type VoiceOptions struct {
	HumanLike bool
	// Language is the default code, "en" when empty.
	Language string
	Voice    string
	// AutoDetect picks the language from the text's script.
	AutoDetect bool
}

// Voice holds the adjustable speech settings.
type Voice struct {
	mu         sync.RWMutex
	human      bool
	rate       int
	volume     float64
	voice      string
	language   string
	autoDetect bool
	langs      Languages
}

func NewVoice(opt VoiceOptions) *Voice {
	if opt.Language == "" {
		opt.Language = "en"
	}
	return &Voice{
		human:      opt.HumanLike,
		volume:     DefaultVolume,
		voice:      opt.Voice,
		language:   opt.Language,
		autoDetect: opt.AutoDetect,
	}
}

func (v *Voice) SetHumanLike(on bool) string {
	v.mu.Lock()
	v.human = on
	v.rate = 0
	v.mu.Unlock()

	if on {
		return "Human-like speech mode activated, sir."
	}
	return "Standard speech mode activated, sir."
}

func (v *Voice) HumanLike() bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.human
}

// SetRate pins the rate in words per minute until the mode is switched.
func (v *Voice) SetRate(wpm int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.rate = wpm
}

func (v *Voice) ApplyStyle(name string) (string, bool) {
	name = strings.TrimSpace(name)
	for _, s := range styles {
		if s.Name != name {
			continue
		}
		v.mu.Lock()
		v.rate = s.Rate
		v.volume = s.Volume
		v.mu.Unlock()
		return fmt.Sprintf("Voice style changed to %s, sir.", name), true
	}
	return "", false
}

func (v *Voice) Styles() []string {
	out := make([]string, len(styles))
	for i, s := range styles {
		out[i] = s.Name
	}
	return out
}

func (v *Voice) SetVoice(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, e := range espeakVoices {
		if e.name == name {
			v.mu.Lock()
			v.voice = name
			v.mu.Unlock()
			return fmt.Sprintf("Voice changed to %s, sir.", name)
		}
	}
	return fmt.Sprintf("Voice '%s' not available. Available voices: %s", name, strings.Join(v.Voices(), ", "))
}

func (v *Voice) Voices() []string {
	out := make([]string, len(espeakVoices))
	for i, e := range espeakVoices {
		out[i] = e.name
	}
	return out
}

// SetLanguage switches the default language and drops any pinned voice.
func (v *Voice) SetLanguage(code string) string {
	v.mu.Lock()
	v.language = code
	v.voice = ""
	v.mu.Unlock()
	return fmt.Sprintf("Language set to %s, sir.", code)
}

func (v *Voice) Language() string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.language
}

// Utterance resolves the current settings for text spoken in mode m.
func (v *Voice) Utterance(text string, m mode.Mode) Utterance {
	v.mu.RLock()
	defer v.mu.RUnlock()

	u := Utterance{
		Text:     Shape(text, v.human),
		Language: v.language,
		Rate:     v.rate,
		Volume:   v.volume,
	}

	if u.Rate == 0 {
		u.Rate = StandardRate
		if v.human {
			u.Rate = HumanRate
		}
	}

	if v.voice != "" {
		for _, e := range espeakVoices {
			if e.name == v.voice {
				u.Language = e.lang
			}
		}
	}
	if v.autoDetect {
		if detected := v.langs.Detect(text); detected != "en" {
			u.Language = detected
		}
	}

	if limit, ok := modeVolume[m]; ok {
		u.Volume = min(u.Volume, limit)
	}
	return u
}
