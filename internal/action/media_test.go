package action

import (
	"bufio"
	"context"
	"errors"
	"net"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

const searchOutput = `{"id":"abc123","title":"Blinding Lights","uploader":"The Weeknd","duration":200}
not json
{"id":"def456","title":"Levitating","channel":"Dua Lipa","duration":203.4}
{"title":"no id"}
{"id":"ghi789","title":"Mystery"}
`

func newMedia(r *fakeRunner, p Player, music MusicLog) *Media {
	if r.out == nil {
		r.out = map[string]Output{"yt-dlp": {Stdout: searchOutput}}
	}
	return NewMedia(MediaOptions{Runner: r, OS: Linux, Player: p, Music: music, Logger: quiet})
}

func TestParseTracks(t *testing.T) {
	got := parseTracks(searchOutput)
	require.Len(t, got, 3)

	assert.Equal(t, Track{
		ID:       "abc123",
		Title:    "Blinding Lights",
		Artist:   "The Weeknd",
		URL:      "https://www.youtube.com/watch?v=abc123",
		Duration: 200_000_000_000,
	}, got[0])
	assert.Equal(t, "Dua Lipa", got[1].Artist)
	assert.Equal(t, "Unknown", got[2].Artist)
}

func TestSearchAndPlayInPlayer(t *testing.T) {
	r := &fakeRunner{}
	p := &fakePlayer{}
	music := &fakeMusic{}
	m := newMedia(r, p, music)

	got, err := m.SearchAndPlay(context.Background(), "blinding lights")
	require.NoError(t, err)
	assert.Equal(t, "Now playing: Blinding Lights by The Weeknd (3:20), sir.", got)
	assert.Equal(t, []string{"yt-dlp --flat-playlist --dump-json --no-warnings ytsearch1:blinding lights"}, r.runs())
	assert.Equal(t, []string{"play https://www.youtube.com/watch?v=abc123"}, p.calls)
	assert.Equal(t, DefaultMediaVolume, p.volume)
	require.Len(t, music.logged, 1)
	assert.Equal(t, "The Weeknd", music.logged[0].Artist)

	got, _ = m.Current(context.Background())
	assert.Equal(t, "Currently playing: Blinding Lights by The Weeknd, sir.", got)
}

func TestSearchAndPlayFallsBackToBrowser(t *testing.T) {
	for name, p := range map[string]*fakePlayer{
		"missing": {missing: true},
		"failing": {playErr: errors.New("mpv crashed")},
	} {
		t.Run(name, func(t *testing.T) {
			r := &fakeRunner{}
			m := newMedia(r, p, nil)

			got, err := m.SearchAndPlay(context.Background(), "weeknd")
			require.NoError(t, err)
			assert.Equal(t, "Playing in browser: Blinding Lights by The Weeknd, sir.", got)
			assert.Equal(t, []string{"xdg-open https://www.youtube.com/watch?v=abc123"}, r.starts())

			got, _ = m.Pause(context.Background())
			assert.Equal(t, "Nothing is playing, sir.", got)
		})
	}
}

func TestSearchAndPlayNoResults(t *testing.T) {
	r := &fakeRunner{out: map[string]Output{"yt-dlp": {}}}
	got, err := newMedia(r, &fakePlayer{}, nil).SearchAndPlay(context.Background(), "zzzz")
	require.NoError(t, err)
	assert.Equal(t, "No results found for 'zzzz', sir.", got)
}

func TestPauseResumeStop(t *testing.T) {
	p := &fakePlayer{}
	m := newMedia(&fakeRunner{}, p, nil)
	ctx := context.Background()

	got, _ := m.Pause(ctx)
	assert.Equal(t, "Nothing is playing, sir.", got)
	got, _ = m.Resume(ctx)
	assert.Equal(t, "Nothing to resume, sir.", got)

	_, err := m.SearchAndPlay(ctx, "x")
	require.NoError(t, err)

	got, _ = m.Resume(ctx)
	assert.Equal(t, "Nothing to resume, sir.", got)
	got, _ = m.Pause(ctx)
	assert.Equal(t, "Playback paused, sir.", got)
	assert.True(t, p.paused)
	got, _ = m.Resume(ctx)
	assert.Equal(t, "Playback resumed, sir.", got)
	assert.False(t, p.paused)

	got, _ = m.Stop(ctx)
	assert.Equal(t, "Playback stopped, sir.", got)
	got, _ = m.Current(ctx)
	assert.Equal(t, "No media is playing, sir.", got)
	assert.Equal(t, "stop", p.calls[len(p.calls)-1])
}

func TestMediaVolume(t *testing.T) {
	p := &fakePlayer{}
	m := newMedia(&fakeRunner{}, p, nil)
	ctx := context.Background()

	got, _ := m.VolumeUp(ctx)
	assert.Equal(t, "Volume set to 80%, sir.", got)
	got, _ = m.SetVolume(ctx, 150)
	assert.Equal(t, "Volume set to 100%, sir.", got)
	got, _ = m.VolumeUp(ctx)
	assert.Equal(t, "Volume set to 100%, sir.", got)
	got, _ = m.SetVolume(ctx, 5)
	assert.Equal(t, "Volume set to 5%, sir.", got)
	got, _ = m.VolumeDown(ctx)
	assert.Equal(t, "Volume set to 0%, sir.", got)
	assert.Empty(t, p.calls, "no track, nothing sent to the player")

	_, _ = m.SearchAndPlay(ctx, "x")
	assert.Equal(t, 0, p.volume)
	_, _ = m.SetVolume(ctx, 30)
	assert.Equal(t, 30, p.volume)
}

func TestMediaSearchAndTrending(t *testing.T) {
	r := &fakeRunner{}
	m := newMedia(r, nil, nil)
	ctx := context.Background()

	got, err := m.Search(ctx, "pop", 5)
	require.NoError(t, err)
	assert.Equal(t, "Found 3 results for 'pop':\n"+
		"1. Blinding Lights - The Weeknd\n"+
		"2. Levitating - Dua Lipa\n"+
		"3. Mystery - Unknown\n", got)

	got, err = m.Trending(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Trending music:\n"+
		"1. Blinding Lights - The Weeknd\n"+
		"2. Levitating - Dua Lipa\n"+
		"3. Mystery - Unknown", got)
	assert.Contains(t, r.runs()[1], "ytsearch10:trending music 2024")

	r.err = map[string]error{"yt-dlp": errors.New("network")}
	got, _ = m.Trending(ctx)
	assert.Equal(t, "Could not fetch trending music, sir.", got)
}

func TestPlayVideoOpensBrowser(t *testing.T) {
	r := &fakeRunner{}
	p := &fakePlayer{}
	got, err := newMedia(r, p, nil).PlayVideo(context.Background(), "levitating")
	require.NoError(t, err)
	assert.Equal(t, "Playing in browser: Blinding Lights by The Weeknd, sir.", got)
	assert.Empty(t, p.calls)
	assert.Len(t, r.starts(), 1)
}

func TestMusicHistory(t *testing.T) {
	music := &fakeMusic{}
	m := newMedia(&fakeRunner{}, &fakePlayer{}, music)
	ctx := context.Background()

	got, _ := m.History(ctx, 10)
	assert.Equal(t, "No music history available.", got)

	_ = music.LogMusic(ctx, "Intro", "")
	_ = music.LogMusic(ctx, "Levitating", "Dua Lipa")

	got, err := m.History(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, "Recent music:\n"+
		"- Levitating by Dua Lipa (2025-01-02T03:04:05)\n"+
		"- Intro (2025-01-02T03:04:05)", got)
}

func TestMPVSendsJSONCommands(t *testing.T) {
	sock := filepath.Join(t.TempDir(), "mpv.sock")
	ln, err := net.Listen("unix", sock)
	require.NoError(t, err)
	defer ln.Close()

	received := make(chan string, 4)
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			sc := bufio.NewScanner(conn)
			if sc.Scan() {
				line := sc.Text()
				received <- line
				id := gjson.Get(line, "request_id").Raw
				reply := `{"event":"property-change"}` + "\n" + `{"request_id":` + id + `,"error":"success","data":null}` + "\n"
				if gjson.Get(line, "command.0").String() == "quit" {
					reply = `{"request_id":` + id + `,"error":"invalid parameter"}` + "\n"
				}
				_, _ = conn.Write([]byte(reply))
			}
			conn.Close()
		}
	}()

	m := &MPV{Socket: sock}
	ctx := context.Background()

	require.NoError(t, m.SetPaused(ctx, true))
	line := <-received
	assert.Equal(t, `["set_property","pause",true]`, gjson.Get(line, "command").Raw)

	require.NoError(t, m.SetVolume(ctx, 55))
	line = <-received
	assert.Equal(t, `["set_property","volume",55]`, gjson.Get(line, "command").Raw)

	err = m.Stop(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid parameter")
}

func TestMPVPlayStartsProcess(t *testing.T) {
	r := &fakeRunner{}
	m := &MPV{Runner: r, Binary: "mpv", Socket: filepath.Join(t.TempDir(), "none.sock")}

	assert.True(t, m.Available())
	require.NoError(t, m.Play(context.Background(), "https://youtu.be/x", 40))
	assert.Equal(t, []string{
		"mpv --no-video --really-quiet --ytdl-format=bestaudio --input-ipc-server=" + m.Socket + " --volume=40 https://youtu.be/x",
	}, r.starts())

	m.LookPath = func(string) (string, error) { return "", errors.New("not found") }
	assert.False(t, m.Available())
}
