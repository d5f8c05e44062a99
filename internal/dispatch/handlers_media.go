package dispatch

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var digitsRe = regexp.MustCompile(`\d+`)

func (d *Dispatcher) handlePlay(ctx context.Context, cmd *Command) (string, error) {
	switch {
	case strings.Contains(cmd.Lower, "music"), strings.Contains(cmd.Lower, "song"):
		return d.handlePlayMusic(ctx, cmd)
	case strings.Contains(cmd.Lower, "video"):
		return d.handlePlayVideo(ctx, cmd)
	case strings.Contains(cmd.Lower, "youtube"):
		return d.handlePlayYouTube(ctx, cmd)
	}

	if d.p.Media == nil {
		return "", unavailable("media")
	}
	if q, ok := after(cmd.Lower, "play "); ok && q != "" {
		cmd.Target = q
		return d.p.Media.SearchAndPlay(ctx, q)
	}
	return "What would you like me to play, sir?", nil
}

func (d *Dispatcher) handlePlayMusic(ctx context.Context, cmd *Command) (string, error) {
	if d.p.Media == nil {
		return "", unavailable("media")
	}

	for _, sep := range []string{" named ", " called ", " by "} {
		if q, ok := after(cmd.Lower, sep); ok && q != "" {
			cmd.Target = q
			return d.p.Media.SearchAndPlay(ctx, q)
		}
	}
	if strings.Contains(cmd.Lower, "play music") {
		if q := strings.TrimSpace(strings.Replace(cmd.Lower, "play music", "", 1)); q != "" {
			cmd.Target = q
			return d.p.Media.SearchAndPlay(ctx, q)
		}
	}
	return "What song would you like me to play, sir?", nil
}

func (d *Dispatcher) handlePlayYouTube(ctx context.Context, cmd *Command) (string, error) {
	if d.p.Media == nil {
		return "", unavailable("media")
	}
	if strings.Contains(cmd.Lower, "play youtube") {
		if q := strings.TrimSpace(strings.Replace(cmd.Lower, "play youtube", "", 1)); q != "" {
			return d.p.Media.PlayVideo(ctx, q)
		}
	}
	return "What should I search on YouTube, sir?", nil
}

func (d *Dispatcher) handlePlayVideo(ctx context.Context, cmd *Command) (string, error) {
	if d.p.Media == nil {
		return "", unavailable("media")
	}
	if strings.Contains(cmd.Lower, "play video") {
		if q := strings.TrimSpace(strings.Replace(cmd.Lower, "play video", "", 1)); q != "" {
			return d.p.Media.PlayVideo(ctx, q)
		}
	}
	return "What video would you like to watch, sir?", nil
}

func (d *Dispatcher) handlePause(ctx context.Context, _ *Command) (string, error) {
	if d.p.Media == nil {
		return "", unavailable("media")
	}
	return d.p.Media.Pause(ctx)
}

func (d *Dispatcher) handleResume(ctx context.Context, _ *Command) (string, error) {
	if d.p.Media == nil {
		return "", unavailable("media")
	}
	return d.p.Media.Resume(ctx)
}

func (d *Dispatcher) handleStopMusic(ctx context.Context, _ *Command) (string, error) {
	if d.p.Media == nil {
		return "", unavailable("media")
	}
	return d.p.Media.Stop(ctx)
}

func (d *Dispatcher) handleMusicVolumeUp(ctx context.Context, _ *Command) (string, error) {
	if d.p.Media == nil {
		return "", unavailable("media")
	}
	return d.p.Media.VolumeUp(ctx)
}

func (d *Dispatcher) handleMusicVolumeDown(ctx context.Context, _ *Command) (string, error) {
	if d.p.Media == nil {
		return "", unavailable("media")
	}
	return d.p.Media.VolumeDown(ctx)
}

func (d *Dispatcher) handleSetVolume(ctx context.Context, cmd *Command) (string, error) {
	if d.p.Media == nil {
		return "", unavailable("media")
	}
	rest, ok := after(cmd.Lower, "to ")
	if !ok {
		return "What volume level would you like, sir?", nil
	}

	v, err := strconv.Atoi(digitsRe.FindString(rest))
	if err != nil {
		return "Please specify a volume level between 0 and 100, sir.", nil
	}
	return d.p.Media.SetVolume(ctx, v)
}

func (d *Dispatcher) handleNowPlaying(ctx context.Context, _ *Command) (string, error) {
	if d.p.Media == nil {
		return "", unavailable("media")
	}
	return d.p.Media.Current(ctx)
}

func (d *Dispatcher) handleNextSong(_ context.Context, _ *Command) (string, error) {
	return "Playlist feature coming soon, sir. For now, please specify a song to play.", nil
}

func (d *Dispatcher) handleSearchMusic(ctx context.Context, cmd *Command) (string, error) {
	if d.p.Media == nil {
		return "", unavailable("media")
	}
	if q, ok := after(cmd.Lower, "for "); ok {
		return d.p.Media.Search(ctx, q, 5)
	}
	return "What would you like to search for, sir?", nil
}

func (d *Dispatcher) handleTrending(ctx context.Context, _ *Command) (string, error) {
	if d.p.Media == nil {
		return "", unavailable("media")
	}
	return d.p.Media.Trending(ctx)
}

func (d *Dispatcher) handleMusicHistory(ctx context.Context, _ *Command) (string, error) {
	if d.p.Media == nil {
		return "", unavailable("media")
	}
	return d.p.Media.History(ctx, 10)
}

// speech settings

const (
	slowRate = 140
	fastRate = 220
)

func (d *Dispatcher) handleHumanVoice(_ context.Context, _ *Command) (string, error) {
	if d.p.Voice == nil {
		return "", unavailable("voice")
	}
	return d.p.Voice.SetHumanLike(true), nil
}

func (d *Dispatcher) handleRobotVoice(_ context.Context, _ *Command) (string, error) {
	if d.p.Voice == nil {
		return "", unavailable("voice")
	}
	return d.p.Voice.SetHumanLike(false), nil
}

func (d *Dispatcher) handleSlowSpeech(_ context.Context, _ *Command) (string, error) {
	if d.p.Voice == nil {
		return "", unavailable("voice")
	}
	d.p.Voice.SetRate(slowRate)
	return "Speech rate set to slow, sir.", nil
}

func (d *Dispatcher) handleFastSpeech(_ context.Context, _ *Command) (string, error) {
	if d.p.Voice == nil {
		return "", unavailable("voice")
	}
	d.p.Voice.SetRate(fastRate)
	return "Speech rate set to fast, sir.", nil
}

func (d *Dispatcher) handleChangeVoice(_ context.Context, cmd *Command) (string, error) {
	if d.p.Voice == nil {
		return "", unavailable("voice")
	}
	if strings.Contains(cmd.Lower, " to ") {
		name, _ := after(cmd.Lower, "to ")
		return d.p.Voice.SetVoice(name), nil
	}
	return "Which voice would you like me to use, sir?", nil
}

func (d *Dispatcher) handleChangeAccent(_ context.Context, cmd *Command) (string, error) {
	if d.p.Voice == nil {
		return "", unavailable("voice")
	}
	if accent, ok := after(cmd.Lower, "to "); ok {
		return d.p.Voice.SetVoice(accent), nil
	}
	return fmt.Sprintf("Available voices: %s, sir.", strings.Join(d.p.Voice.Voices(), ", ")), nil
}

func (d *Dispatcher) handleListVoices(_ context.Context, _ *Command) (string, error) {
	if d.p.Voice == nil {
		return "", unavailable("voice")
	}
	voices := d.p.Voice.Voices()
	if len(voices) == 0 {
		return "Voice information unavailable, sir.", nil
	}
	return fmt.Sprintf("Available voices: %s, sir.", strings.Join(voices, ", ")), nil
}

func (d *Dispatcher) handleVoiceStyle(_ context.Context, cmd *Command) (string, error) {
	if d.p.Voice == nil {
		return "", unavailable("voice")
	}
	if style, ok := after(cmd.Lower, "to "); ok {
		if reply, ok := d.p.Voice.ApplyStyle(style); ok {
			return reply, nil
		}
	}
	return fmt.Sprintf("Available styles: %s, sir.", strings.Join(d.p.Voice.Styles(), ", ")), nil
}

func (d *Dispatcher) handleChangeLanguage(_ context.Context, cmd *Command) (string, error) {
	if d.p.Languages == nil || d.p.Voice == nil {
		return "", unavailable("languages")
	}
	if strings.Contains(cmd.Lower, " to ") {
		name, _ := after(cmd.Lower, "to ")
		d.p.Voice.SetLanguage(d.p.Languages.Code(name))
		return fmt.Sprintf("Language changed to %s, sir.", name), nil
	}

	names := d.p.Languages.Names()
	if len(names) > 10 {
		names = names[:10]
	}
	return fmt.Sprintf("Supported languages: %s and more, sir.", strings.Join(names, ", ")), nil
}

func (d *Dispatcher) handleDetectLanguage(_ context.Context, cmd *Command) (string, error) {
	if d.p.Languages == nil {
		return "", unavailable("languages")
	}
	if text, ok := after(cmd.Lower, " in "); ok {
		return fmt.Sprintf("Detected language: %s, sir.", d.p.Languages.Detect(text)), nil
	}
	return "Please provide text to detect language, sir.", nil
}
