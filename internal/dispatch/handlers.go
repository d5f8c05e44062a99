package dispatch

import (
	"context"
	"fmt"
	"strings"

	"jarvis/internal/memory"
	"jarvis/internal/mode"
)

func (d *Dispatcher) handleTime(_ context.Context, _ *Command) (string, error) {
	return fmt.Sprintf("The current time is %s, sir.", d.now().Format("03:04 PM")), nil
}

func (d *Dispatcher) handleDate(_ context.Context, _ *Command) (string, error) {
	return fmt.Sprintf("Today is %s, sir.", d.now().Format("Monday, January 02, 2006")), nil
}

func (d *Dispatcher) handleWeather(ctx context.Context, cmd *Command) (string, error) {
	if d.p.Weather == nil {
		return "", unavailable("weather")
	}
	city, _ := after(cmd.Lower, "in ")
	return d.p.Weather.Current(ctx, city)
}

// apps

func (d *Dispatcher) handleOpen(ctx context.Context, cmd *Command) (string, error) {
	if d.p.Apps == nil {
		return "", unavailable("apps")
	}
	app, _ := after(cmd.Lower, "open ")
	if app == "" {
		return "What would you like me to open, sir?", nil
	}

	status, target, err := d.p.Apps.Open(ctx, app)
	if err != nil {
		return "", err
	}
	cmd.Target = target
	return status, nil
}

func (d *Dispatcher) handleClose(ctx context.Context, cmd *Command) (string, error) {
	if d.p.Apps == nil {
		return "", unavailable("apps")
	}

	app, ok := after(cmd.Lower, "close ")
	if !ok {
		if d.mem != nil {
			app = d.mem.Reference(memory.RefLastTarget)
		}
		if app == "" {
			return "What would you like me to close, sir?", nil
		}
	}
	return d.p.Apps.Close(ctx, app)
}

func (d *Dispatcher) handleMinimize(ctx context.Context, _ *Command) (string, error) {
	if d.p.Apps == nil {
		return "", unavailable("apps")
	}
	return d.p.Apps.Minimize(ctx)
}

func (d *Dispatcher) handleMaximize(ctx context.Context, _ *Command) (string, error) {
	if d.p.Apps == nil {
		return "", unavailable("apps")
	}
	return d.p.Apps.Maximize(ctx)
}

// messaging

func (d *Dispatcher) handleWhatsApp(ctx context.Context, _ *Command) (string, error) {
	if d.p.Messaging == nil {
		return "", unavailable("messaging")
	}
	return d.p.Messaging.Open(ctx)
}

func (d *Dispatcher) handleSendMessage(ctx context.Context, cmd *Command) (string, error) {
	if d.p.Messaging == nil {
		return "", unavailable("messaging")
	}

	if rest, ok := after(cmd.Lower, " to "); ok {
		if contact, message, ok := strings.Cut(rest, ":"); ok {
			return d.p.Messaging.Send(ctx, strings.TrimSpace(contact), strings.TrimSpace(message))
		}
	}
	return "Please use format: send message to [contact]: [message], sir.", nil
}

func (d *Dispatcher) handleCall(ctx context.Context, cmd *Command) (string, error) {
	if d.p.Messaging == nil {
		return "", unavailable("messaging")
	}
	if contact, ok := after(cmd.Lower, "call "); ok {
		return d.p.Messaging.Call(ctx, contact, false)
	}
	return "Who would you like me to call, sir?", nil
}

func (d *Dispatcher) handleVideoCall(ctx context.Context, cmd *Command) (string, error) {
	if d.p.Messaging == nil {
		return "", unavailable("messaging")
	}
	if contact, ok := after(cmd.Lower, "video call "); ok {
		return d.p.Messaging.Call(ctx, contact, true)
	}
	return "Who would you like to video call, sir?", nil
}

func (d *Dispatcher) handleAcceptCall(ctx context.Context, _ *Command) (string, error) {
	if d.p.Messaging == nil {
		return "", unavailable("messaging")
	}
	return d.p.Messaging.Accept(ctx)
}

func (d *Dispatcher) handleDeclineCall(ctx context.Context, _ *Command) (string, error) {
	if d.p.Messaging == nil {
		return "", unavailable("messaging")
	}
	return d.p.Messaging.Decline(ctx)
}

func (d *Dispatcher) handleEndCall(ctx context.Context, _ *Command) (string, error) {
	if d.p.Messaging == nil {
		return "", unavailable("messaging")
	}
	return d.p.Messaging.End(ctx)
}

func (d *Dispatcher) handleMuteCall(ctx context.Context, _ *Command) (string, error) {
	if d.p.Messaging == nil {
		return "", unavailable("messaging")
	}
	return d.p.Messaging.MuteCall(ctx)
}

func (d *Dispatcher) handleSpeaker(ctx context.Context, _ *Command) (string, error) {
	if d.p.Messaging == nil {
		return "", unavailable("messaging")
	}
	return d.p.Messaging.ToggleSpeaker(ctx)
}

func (d *Dispatcher) handleCallHistory(ctx context.Context, _ *Command) (string, error) {
	if d.p.Messaging == nil {
		return "", unavailable("messaging")
	}
	return d.p.Messaging.History(ctx, 10)
}

// web

func (d *Dispatcher) handleSearch(ctx context.Context, cmd *Command) (string, error) {
	if d.p.Web == nil {
		return "", unavailable("web")
	}
	if q, ok := after(cmd.Lower, "for "); ok {
		return d.p.Web.Google(ctx, q)
	}
	return "What would you like me to search for, sir?", nil
}

func (d *Dispatcher) handleYouTube(ctx context.Context, cmd *Command) (string, error) {
	if d.p.Web == nil {
		return "", unavailable("web")
	}
	q, _ := after(cmd.Lower, "for ")
	return d.p.Web.YouTube(ctx, q)
}

func (d *Dispatcher) handleChatGPT(ctx context.Context, _ *Command) (string, error) {
	if d.p.Web == nil {
		return "", unavailable("web")
	}
	return d.p.Web.ChatGPT(ctx)
}

func (d *Dispatcher) handleClaude(ctx context.Context, _ *Command) (string, error) {
	if d.p.Web == nil {
		return "", unavailable("web")
	}
	return d.p.Web.Claude(ctx)
}

func (d *Dispatcher) handleGemini(ctx context.Context, _ *Command) (string, error) {
	if d.p.Web == nil {
		return "", unavailable("web")
	}
	return d.p.Web.Gemini(ctx)
}

func (d *Dispatcher) handleStackOverflow(ctx context.Context, cmd *Command) (string, error) {
	if d.p.Web == nil {
		return "", unavailable("web")
	}
	if problem, ok := after(cmd.Lower, "for "); ok {
		return d.p.Web.StackOverflow(ctx, problem)
	}
	return "What coding problem should I search for, sir?", nil
}

// code

// namedArg returns what follows " named " or " called ".
func namedArg(lower string) (string, bool) {
	if v, ok := after(lower, " named "); ok {
		return v, true
	}
	return after(lower, " called ")
}

func (d *Dispatcher) handleCreateFile(ctx context.Context, cmd *Command) (string, error) {
	if d.p.Code == nil {
		return "", unavailable("code")
	}
	name, ok := namedArg(cmd.Lower)
	if !ok {
		return "Please specify a filename, sir.", nil
	}

	path, err := d.p.Code.CreateFile(ctx, name, "")
	if err != nil {
		return "", err
	}
	cmd.Target = path
	return fmt.Sprintf("Created %s, sir. Would you like me to open it in VS Code?", name), nil
}

func (d *Dispatcher) handleWriteCode(_ context.Context, _ *Command) (string, error) {
	return "Please specify what code you'd like me to write, sir.", nil
}

func (d *Dispatcher) handleRunProgram(ctx context.Context, cmd *Command) (string, error) {
	if d.p.Code == nil {
		return "", unavailable("code")
	}
	if name, ok := after(cmd.Lower, "run program "); ok && name != "" {
		return d.p.Code.Run(ctx, name)
	}
	return "Please specify which program to run, sir.", nil
}

func (d *Dispatcher) handleGenerateCode(ctx context.Context, cmd *Command) (string, error) {
	if d.p.Code == nil {
		return "", unavailable("code")
	}
	task, ok := after(cmd.Lower, " to ")
	if !ok {
		return "Please specify what code to generate, sir.", nil
	}

	code, err := d.p.Code.Generate(ctx, task, "python")
	if err != nil {
		return "", err
	}

	name := fmt.Sprintf("generated_%s.py", d.now().Format("20060102_150405"))
	path, err := d.p.Code.CreateFile(ctx, name, "python")
	if err != nil {
		return "", err
	}
	if _, err := d.p.Code.Write(ctx, path, code); err != nil {
		return "", err
	}

	cmd.Target = path
	return fmt.Sprintf("Code generated and saved to %s, sir.", name), nil
}

func (d *Dispatcher) handleOpenInEditor(ctx context.Context, cmd *Command) (string, error) {
	if d.p.Apps == nil {
		return "", unavailable("apps")
	}
	status, target, err := d.p.Apps.Open(ctx, "vscode")
	if err != nil {
		return "", err
	}
	cmd.Target = target
	return status, nil
}

// files

func (d *Dispatcher) handleCreateFolder(ctx context.Context, cmd *Command) (string, error) {
	if d.p.Files == nil {
		return "", unavailable("files")
	}
	name, ok := namedArg(cmd.Lower)
	if !ok {
		return "Please specify a folder name, sir.", nil
	}
	cmd.Target = name
	return d.p.Files.CreateFolder(ctx, name)
}

func (d *Dispatcher) handleRename(ctx context.Context, cmd *Command) (string, error) {
	if d.p.Files == nil {
		return "", unavailable("files")
	}
	if rest, ok := afterFold(cmd.spoken(), "rename "); ok {
		if src, dst, ok := cutFold(rest, " to "); ok && src != "" && dst != "" {
			return d.p.Files.Rename(ctx, strings.TrimSpace(src), strings.TrimSpace(dst))
		}
	}
	return "Please specify what to rename and the new name, sir.", nil
}

func (d *Dispatcher) handleMove(ctx context.Context, cmd *Command) (string, error) {
	if d.p.Files == nil {
		return "", unavailable("files")
	}
	if rest, ok := afterFold(cmd.spoken(), "move "); ok {
		if src, dst, ok := cutFold(rest, " to "); ok && src != "" && dst != "" {
			return d.p.Files.Move(ctx, strings.TrimSpace(src), strings.TrimSpace(dst))
		}
	}
	return "Please specify what to move and where, sir.", nil
}

func (d *Dispatcher) handleDelete(ctx context.Context, cmd *Command) (string, error) {
	if d.p.Files == nil {
		return "", unavailable("files")
	}
	path, ok := afterFold(cmd.spoken(), "delete ")
	if !ok || path == "" {
		return "What would you like me to delete, sir?", nil
	}
	cmd.Payload = path
	return d.p.Files.Delete(ctx, path, false)
}

func (d *Dispatcher) handleSearchFiles(ctx context.Context, cmd *Command) (string, error) {
	if d.p.Files == nil {
		return "", unavailable("files")
	}
	rest, ok := after(cmd.Lower, "for ")
	if !ok || rest == "" {
		return "Please specify what files to search for, sir.", nil
	}

	dir := "."
	if pattern, in, ok := strings.Cut(rest, " in "); ok {
		rest, dir = strings.TrimSpace(pattern), strings.TrimSpace(in)
	}
	return d.p.Files.Search(ctx, dir, rest)
}

// system

func (d *Dispatcher) handleVolume(ctx context.Context, cmd *Command) (string, error) {
	if d.p.System == nil {
		return "", unavailable("system")
	}
	switch {
	case containsAny(cmd.Lower, []string{"up", "increase", "raise"}):
		return d.p.System.VolumeUp(ctx)
	case containsAny(cmd.Lower, []string{"down", "decrease", "lower"}):
		return d.p.System.VolumeDown(ctx)
	case strings.Contains(cmd.Lower, "mute"):
		return d.p.System.Mute(ctx)
	}
	return "Would you like me to adjust the volume, sir?", nil
}

func (d *Dispatcher) handleScreenshot(ctx context.Context, _ *Command) (string, error) {
	if d.p.System == nil {
		return "", unavailable("system")
	}
	return d.p.System.Screenshot(ctx)
}

func (d *Dispatcher) handleLock(ctx context.Context, _ *Command) (string, error) {
	if d.p.System == nil {
		return "", unavailable("system")
	}
	return d.p.System.Lock(ctx)
}

func (d *Dispatcher) handleShutdown(ctx context.Context, _ *Command) (string, error) {
	if d.p.System == nil {
		return "", unavailable("system")
	}
	return d.p.System.Shutdown(ctx, false)
}

func (d *Dispatcher) handleRestart(ctx context.Context, _ *Command) (string, error) {
	if d.p.System == nil {
		return "", unavailable("system")
	}
	return d.p.System.Restart(ctx, false)
}

func (d *Dispatcher) handleSystemInfo(ctx context.Context, _ *Command) (string, error) {
	if d.p.System == nil {
		return "", unavailable("system")
	}
	return d.p.System.Info(ctx)
}

func (d *Dispatcher) handleBattery(ctx context.Context, _ *Command) (string, error) {
	if d.p.System == nil {
		return "", unavailable("system")
	}
	return d.p.System.Battery(ctx)
}

// checked in order against the whole command
var modeReplies = []struct {
	keyword string
	mode    mode.Mode
	reply   string
}{
	{"silent", mode.Silent, "Silent mode activated, sir. I'll keep my voice down."},
	{"night", mode.Night, "Night mode activated, sir. Reducing volume and brightness for your comfort."},
	{"idle", mode.Idle, "Idle mode activated, sir. I'll be quiet unless you need me."},
	{"active", mode.Active, "Active mode restored, sir. Ready for rapid response."},
	{"alert", mode.Alert, "Alert mode activated, sir. Standing by for urgent commands."},
	{"developer", mode.Developer, "Developer mode activated, sir. Coding systems at full capacity."},
	{"presentation", mode.Presentation, "Presentation mode activated, sir. Optimized for public speaking."},
	{"safe", mode.Safe, "Safe mode activated, sir. High-risk operations will require additional confirmation."},
	{"normal", mode.Normal, "Normal mode activated, sir. All systems operating at standard parameters."},
	{"entertainment", mode.Entertainment, "Entertainment mode activated, sir. Media controls at your disposal."},
}

func (d *Dispatcher) handleMode(_ context.Context, cmd *Command) (string, error) {
	for _, m := range modeReplies {
		if strings.Contains(cmd.Lower, m.keyword) {
			if d.p.Mode == nil {
				return "", unavailable("mode")
			}
			d.p.Mode.Set(m.mode)
			return m.reply, nil
		}
	}
	return "Available modes: normal, active, idle, silent, night, alert, developer, presentation, safe, sir.", nil
}

// identity

var creatorReplies = []string{
	"I was created by Singh Industries, sir. My creator is Mr. Prabhnoor Singh.",
	"Singh Industries designed and developed me. Mr. Prabhnoor Singh is my creator, sir.",
	"Mr. Prabhnoor Singh of Singh Industries engineered every aspect of my intelligence, sir.",
	"I am a product of Singh Industries, created by Mr. Prabhnoor Singh, sir.",
}

var identityReplies = []string{
	"I am JARVIS, Just A Rather Very Intelligent System, created by Mr. Prabhnoor Singh of Singh Industries, sir.",
	"My name is JARVIS. I was designed and built by Mr. Prabhnoor Singh at Singh Industries, sir.",
	"I'm JARVIS, your AI assistant, engineered by Mr. Prabhnoor Singh of Singh Industries, sir.",
}

func (d *Dispatcher) handleCreator(_ context.Context, _ *Command) (string, error) {
	return creatorReplies[d.pick(len(creatorReplies))], nil
}

func (d *Dispatcher) handleIdentity(_ context.Context, _ *Command) (string, error) {
	return identityReplies[d.pick(len(identityReplies))], nil
}
