package dispatch

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
)

// journal records provider calls as "group.op:arg" strings.
type journal struct {
	mu    sync.Mutex
	calls []string
}

func (j *journal) add(format string, args ...any) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.calls = append(j.calls, fmt.Sprintf(format, args...))
}

func (j *journal) all() []string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]string(nil), j.calls...)
}

func (j *journal) count(call string) int {
	n := 0
	for _, c := range j.all() {
		if c == call {
			n++
		}
	}
	return n
}

type fakeApps struct{ j *journal }

var appNames = map[string]string{"calculator": "gnome-calculator", "chrome": "google-chrome"}

func (f fakeApps) Open(_ context.Context, name string) (string, string, error) {
	f.j.add("apps.open:%s", name)
	target := name
	if v, ok := appNames[name]; ok {
		target = v
	}
	return "Opening " + target + ", sir.", target, nil
}

func (f fakeApps) Close(_ context.Context, name string) (string, error) {
	f.j.add("apps.close:%s", name)
	return "Closing " + name + ", sir.", nil
}

func (f fakeApps) Minimize(context.Context) (string, error) {
	f.j.add("apps.minimize")
	return "Window minimized, sir.", nil
}

func (f fakeApps) Maximize(context.Context) (string, error) {
	f.j.add("apps.maximize")
	return "Window maximized, sir.", nil
}

type fakeFiles struct{ j *journal }

func (f fakeFiles) CreateFolder(_ context.Context, path string) (string, error) {
	f.j.add("files.mkdir:%s", path)
	return "Folder created: " + path + ", sir.", nil
}

func (f fakeFiles) Rename(_ context.Context, path, newName string) (string, error) {
	f.j.add("files.rename:%s:%s", path, newName)
	return "Renamed to: " + newName + ", sir.", nil
}

func (f fakeFiles) Move(_ context.Context, src, dst string) (string, error) {
	f.j.add("files.move:%s:%s", src, dst)
	return "Moved, sir.", nil
}

func (f fakeFiles) Delete(_ context.Context, path string, confirmed bool) (string, error) {
	if !confirmed {
		f.j.add("files.delete?:%s", path)
		return fmt.Sprintf("CONFIRM_DELETE: Are you sure you want to delete %s?", filepath.Base(path)), nil
	}
	f.j.add("files.delete:%s", path)
	return "Deleted: " + filepath.Base(path) + ", sir.", nil
}

func (f fakeFiles) Search(_ context.Context, dir, pattern string) (string, error) {
	f.j.add("files.search:%s:%s", dir, pattern)
	return "No files found matching '" + pattern + "'", nil
}

type fakeSystem struct{ j *journal }

func (f fakeSystem) VolumeUp(context.Context) (string, error) {
	f.j.add("system.volume_up")
	return "Volume increased, sir.", nil
}

func (f fakeSystem) VolumeDown(context.Context) (string, error) {
	f.j.add("system.volume_down")
	return "Volume decreased, sir.", nil
}

func (f fakeSystem) Mute(context.Context) (string, error) {
	f.j.add("system.mute")
	return "Volume muted, sir.", nil
}

func (f fakeSystem) Screenshot(context.Context) (string, error) {
	panic("display went away")
}

func (f fakeSystem) Lock(context.Context) (string, error) {
	f.j.add("system.lock")
	return "System locked, sir.", nil
}

func (f fakeSystem) Shutdown(_ context.Context, confirmed bool) (string, error) {
	if !confirmed {
		f.j.add("system.shutdown?")
		return "CONFIRM_SHUTDOWN: Are you sure you want to shutdown the system?", nil
	}
	f.j.add("system.shutdown")
	return "Shutting down system, sir.", nil
}

func (f fakeSystem) Restart(_ context.Context, confirmed bool) (string, error) {
	if !confirmed {
		f.j.add("system.restart?")
		return "CONFIRM_RESTART: Are you sure you want to restart the system?", nil
	}
	f.j.add("system.restart")
	return "Restarting system, sir.", nil
}

func (f fakeSystem) Info(context.Context) (string, error) {
	f.j.add("system.info")
	return "System Status:", nil
}

func (f fakeSystem) Battery(context.Context) (string, error) {
	f.j.add("system.battery")
	return "No battery detected, sir.", nil
}

type fakeMessaging struct{ j *journal }

func (f fakeMessaging) Open(context.Context) (string, error) {
	f.j.add("msg.open")
	return "WhatsApp opened.", nil
}

func (f fakeMessaging) Send(_ context.Context, contact, message string) (string, error) {
	f.j.add("msg.send:%s:%s", contact, message)
	return "Message sent to " + contact + ", sir.", nil
}

func (f fakeMessaging) Call(_ context.Context, contact string, video bool) (string, error) {
	kind := "voice"
	if video {
		kind = "video"
	}
	f.j.add("msg.call:%s:%s", contact, kind)
	return fmt.Sprintf("Calling %s (%s call), sir...", contact, kind), nil
}

func (f fakeMessaging) Accept(context.Context) (string, error) {
	f.j.add("msg.accept")
	return "Call accepted, sir.", nil
}

func (f fakeMessaging) Decline(context.Context) (string, error) {
	f.j.add("msg.decline")
	return "Call declined, sir.", nil
}

func (f fakeMessaging) End(context.Context) (string, error) {
	f.j.add("msg.end")
	return "Call ended, sir.", nil
}

func (f fakeMessaging) MuteCall(context.Context) (string, error) {
	f.j.add("msg.mute")
	return "Call muted/unmuted, sir.", nil
}

func (f fakeMessaging) ToggleSpeaker(context.Context) (string, error) {
	f.j.add("msg.speaker")
	return "Speaker toggled, sir.", nil
}

func (f fakeMessaging) History(_ context.Context, limit int) (string, error) {
	f.j.add("msg.history:%d", limit)
	return "No call history available.", nil
}

type fakeWeb struct{ j *journal }

func (f fakeWeb) Google(_ context.Context, q string) (string, error) {
	f.j.add("web.google:%s", q)
	return "Searching Google for: " + q + ", sir.", nil
}

func (f fakeWeb) YouTube(_ context.Context, q string) (string, error) {
	f.j.add("web.youtube:%s", q)
	return "Searching YouTube for: " + q + ", sir.", nil
}

func (f fakeWeb) StackOverflow(_ context.Context, q string) (string, error) {
	f.j.add("web.so:%s", q)
	return "Searching StackOverflow for: " + q + ", sir.", nil
}

func (f fakeWeb) ChatGPT(context.Context) (string, error) { return "Opening ChatGPT, sir.", nil }
func (f fakeWeb) Claude(context.Context) (string, error)  { return "Opening Claude, sir.", nil }
func (f fakeWeb) Gemini(context.Context) (string, error)  { return "Opening Gemini, sir.", nil }

type fakeWeather struct{ j *journal }

func (f fakeWeather) Current(_ context.Context, city string) (string, error) {
	f.j.add("weather:%s", city)
	if city == "atlantis" {
		return "", errors.New("weather api down")
	}
	return "Weather in " + city + ": 20°C, Sunny.", nil
}

type fakeCode struct{ j *journal }

func (f fakeCode) CreateFile(_ context.Context, name, language string) (string, error) {
	f.j.add("code.create:%s:%s", name, language)
	return filepath.Join("/projects", name), nil
}

func (f fakeCode) Write(_ context.Context, path, code string) (string, error) {
	f.j.add("code.write:%s:%s", path, code)
	return "Code written, sir.", nil
}

func (f fakeCode) Generate(_ context.Context, task, language string) (string, error) {
	f.j.add("code.generate:%s:%s", task, language)
	return "print('hi')", nil
}

func (f fakeCode) OpenInEditor(_ context.Context, path string) (string, error) {
	f.j.add("code.edit:%s", path)
	return "Opened, sir.", nil
}

func (f fakeCode) Run(_ context.Context, path string) (string, error) {
	f.j.add("code.run:%s", path)
	return "Output:\nhi", nil
}

type fakeMedia struct{ j *journal }

func (f fakeMedia) SearchAndPlay(_ context.Context, q string) (string, error) {
	f.j.add("media.play:%s", q)
	return "Now playing: " + q + ", sir.", nil
}

func (f fakeMedia) PlayVideo(_ context.Context, q string) (string, error) {
	f.j.add("media.video:%s", q)
	return "Playing in browser: " + q + ", sir.", nil
}

func (f fakeMedia) Search(_ context.Context, q string, limit int) (string, error) {
	f.j.add("media.search:%s:%d", q, limit)
	return "No results found for '" + q + "', sir.", nil
}

func (f fakeMedia) Pause(context.Context) (string, error) {
	f.j.add("media.pause")
	return "Playback paused, sir.", nil
}

func (f fakeMedia) Resume(context.Context) (string, error) {
	f.j.add("media.resume")
	return "Playback resumed, sir.", nil
}

func (f fakeMedia) Stop(context.Context) (string, error) {
	f.j.add("media.stop")
	return "Playback stopped, sir.", nil
}

func (f fakeMedia) VolumeUp(context.Context) (string, error) {
	f.j.add("media.volume_up")
	return "Volume set to 80%, sir.", nil
}

func (f fakeMedia) VolumeDown(context.Context) (string, error) {
	f.j.add("media.volume_down")
	return "Volume set to 60%, sir.", nil
}

func (f fakeMedia) SetVolume(_ context.Context, v int) (string, error) {
	f.j.add("media.volume:%d", v)
	return fmt.Sprintf("Volume set to %d%%, sir.", v), nil
}

func (f fakeMedia) Current(context.Context) (string, error) {
	f.j.add("media.current")
	return "No media is playing, sir.", nil
}

func (f fakeMedia) Trending(context.Context) (string, error) {
	f.j.add("media.trending")
	return "Trending music:", nil
}

func (f fakeMedia) History(_ context.Context, limit int) (string, error) {
	f.j.add("media.history:%d", limit)
	return "No music history available.", nil
}

type fakeVoice struct {
	j *journal
}

func (f fakeVoice) SetHumanLike(on bool) string {
	f.j.add("voice.human:%v", on)
	if on {
		return "Human-like speech mode activated, sir."
	}
	return "Standard speech mode activated, sir."
}

func (f fakeVoice) SetRate(wpm int) { f.j.add("voice.rate:%d", wpm) }

func (f fakeVoice) ApplyStyle(name string) (string, bool) {
	if name != "calm" {
		return "", false
	}
	f.j.add("voice.style:%s", name)
	return "Voice style changed to calm, sir.", true
}

func (f fakeVoice) Styles() []string { return []string{"professional", "casual", "excited", "calm"} }

func (f fakeVoice) SetVoice(name string) string {
	f.j.add("voice.set:%s", name)
	return "Voice changed to " + name + ", sir."
}

func (f fakeVoice) Voices() []string { return []string{"english", "english-us"} }

func (f fakeVoice) SetLanguage(code string) string {
	f.j.add("voice.lang:%s", code)
	return "Language set to " + code + ", sir."
}

type fakeLanguages struct{}

func (fakeLanguages) Code(name string) string {
	if name == "french" {
		return "fr"
	}
	return "en"
}

func (fakeLanguages) Names() []string {
	return strings.Fields("english hindi punjabi spanish french german italian portuguese russian japanese korean")
}

func (fakeLanguages) Detect(text string) string {
	for _, r := range text {
		if r >= 0x0400 && r <= 0x04FF {
			return "ru"
		}
	}
	return "en"
}

func fakeProviders(j *journal) Providers {
	return Providers{
		Apps:      fakeApps{j},
		Files:     fakeFiles{j},
		System:    fakeSystem{j},
		Messaging: fakeMessaging{j},
		Web:       fakeWeb{j},
		Weather:   fakeWeather{j},
		Code:      fakeCode{j},
		Media:     fakeMedia{j},
		Voice:     fakeVoice{j},
		Languages: fakeLanguages{},
	}
}
