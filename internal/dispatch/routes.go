package dispatch

// table lists the routes in match order. The first keyword contained in the
// command wins, so a short keyword shadows any longer one registered after
// it ("call" before "video call", "play" before "play music"). Reordering
// changes behaviour.
func (d *Dispatcher) table() []Route {
	return []Route{
		{"time", d.handleTime},
		{"date", d.handleDate},
		{"weather", d.handleWeather},
		{"open", d.handleOpen},
		{"close", d.handleClose},
		{"minimize", d.handleMinimize},
		{"maximize", d.handleMaximize},
		{"whatsapp", d.handleWhatsApp},
		{"send message", d.handleSendMessage},
		{"call", d.handleCall},
		{"video call", d.handleVideoCall},
		{"accept call", d.handleAcceptCall},
		{"decline call", d.handleDeclineCall},
		{"reject call", d.handleDeclineCall},
		{"end call", d.handleEndCall},
		{"mute call", d.handleMuteCall},
		{"speaker", d.handleSpeaker},
		{"call history", d.handleCallHistory},
		{"search", d.handleSearch},
		{"youtube", d.handleYouTube},
		{"chatgpt", d.handleChatGPT},
		{"claude", d.handleClaude},
		{"gemini", d.handleGemini},
		{"stackoverflow", d.handleStackOverflow},
		{"create file", d.handleCreateFile},
		{"write code", d.handleWriteCode},
		{"run program", d.handleRunProgram},
		{"generate code", d.handleGenerateCode},
		{"open in vscode", d.handleOpenInEditor},
		{"create folder", d.handleCreateFolder},
		{"rename", d.handleRename},
		{"move", d.handleMove},
		{"delete", d.handleDelete},
		{"search files", d.handleSearchFiles},
		{"volume", d.handleVolume},
		{"screenshot", d.handleScreenshot},
		{"lock", d.handleLock},
		{"shutdown", d.handleShutdown},
		{"restart", d.handleRestart},
		{"system", d.handleSystemInfo},
		{"battery", d.handleBattery},
		{"mode", d.handleMode},
		{"silent", d.handleMode},
		{"developer", d.handleMode},
		{"change voice", d.handleChangeVoice},
		{"list voices", d.handleListVoices},
		{"change language", d.handleChangeLanguage},
		{"detect language", d.handleDetectLanguage},
		{"creator", d.handleCreator},
		{"made", d.handleCreator},
		{"who created you", d.handleCreator},
		{"who are you", d.handleIdentity},
		{"what is your name", d.handleIdentity},

		// media
		{"play", d.handlePlay},
		{"play music", d.handlePlayMusic},
		{"play song", d.handlePlayMusic},
		{"play youtube", d.handlePlayYouTube},
		{"play video", d.handlePlayVideo},
		{"pause music", d.handlePause},
		{"pause song", d.handlePause},
		{"resume music", d.handleResume},
		{"resume song", d.handleResume},
		{"stop music", d.handleStopMusic},
		{"stop song", d.handleStopMusic},
		{"volume up", d.handleMusicVolumeUp},
		{"volume down", d.handleMusicVolumeDown},
		{"set volume", d.handleSetVolume},
		{"what's playing", d.handleNowPlaying},
		{"current song", d.handleNowPlaying},
		{"next song", d.handleNextSong},
		{"search music", d.handleSearchMusic},
		{"trending music", d.handleTrending},
		{"music history", d.handleMusicHistory},

		// speech settings
		{"human voice", d.handleHumanVoice},
		{"robot voice", d.handleRobotVoice},
		{"natural voice", d.handleHumanVoice},
		{"slow speech", d.handleSlowSpeech},
		{"fast speech", d.handleFastSpeech},
		{"change accent", d.handleChangeAccent},
		{"voice style", d.handleVoiceStyle},
	}
}
