// SchoolBell — automated class period announcements.
//
// Usage:
//
//	schoolbell [-verbose] [-quiet]
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	stdlog "log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/hammamikhairi/schoolbell/internal/announce"
	"github.com/hammamikhairi/schoolbell/internal/command"
	"github.com/hammamikhairi/schoolbell/internal/display"
	"github.com/hammamikhairi/schoolbell/internal/domain"
	"github.com/hammamikhairi/schoolbell/internal/logger"
	"github.com/hammamikhairi/schoolbell/internal/schedule"
	"github.com/hammamikhairi/schoolbell/internal/speech"
	"github.com/hammamikhairi/schoolbell/internal/storage"
	"github.com/hammamikhairi/schoolbell/internal/trigger"
)

func main() {
	_ = godotenv.Load()

	verbose := flag.Bool("verbose", false, "enable verbose/debug logging")
	quiet := flag.Bool("quiet", false, "disable all logging")
	logFile := flag.String("log-file", ".bell-logs/bell.log", "file to write logs to (use \"stderr\" to log to console)")
	noSpeech := flag.Bool("no-speech", false, "disable text-to-speech even if Azure keys are set")
	diskCache := flag.Bool("disk-cache", true, "persist TTS audio cache to disk (reads from disk even when false)")
	cacheDir := flag.String("cache-dir", ".bell-cache", "directory for persistent TTS audio cache")
	localDB := flag.String("local-db", ".bell-data/schoolbell.db", "path to the local SQLite snapshot database")
	espeakBin := flag.String("espeak-bin", "espeak-ng", "path to the espeak binary used for fallback narration")
	flag.Parse()

	// Configure logger.
	logLevel := logger.LevelNormal
	if *verbose {
		logLevel = logger.LevelVerbose
	}
	if *quiet {
		logLevel = logger.LevelOff
	}

	// Direct logs to a file by default so the console stays clean.
	var logOut io.Writer = os.Stderr
	if *logFile != "" && *logFile != "stderr" {
		dir := filepath.Dir(*logFile)
		if dir != "" && dir != "." {
			os.MkdirAll(dir, 0o755)
		}
		f, err := os.OpenFile(*logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: could not open log file %s: %v (falling back to stderr)\n", *logFile, err)
		} else {
			logOut = f
			defer f.Close()
		}
	}

	// Redirect Go's default log package (used by third-party libs) to
	// the same output so it doesn't spam the terminal.
	stdlog.SetOutput(logOut)
	stdlog.SetFlags(stdlog.Ltime)

	log := logger.New(logLevel, logOut)

	// Set up context — cancelled when the UI quits.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ── Persistence ──────────────────────────────────────────────

	if dir := filepath.Dir(*localDB); dir != "" && dir != "." {
		os.MkdirAll(dir, 0o755)
	}
	local, err := storage.NewLocalStore(*localDB, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: opening local database %s: %v\n", *localDB, err)
		os.Exit(1)
	}
	defer local.Close()

	var remote domain.Backend
	if dsn, ok := storage.RemoteDSNFromEnv(); ok {
		r, err := storage.NewRemoteStore(dsn, log)
		if err != nil {
			log.Warn("remote database unreachable, continuing with local snapshots: %v", err)
		} else {
			remote = r
			log.Info("remote database connected")
		}
	} else {
		log.Info("remote database disabled: set DB_HOST (and friends) to enable")
	}

	mirror := storage.NewMirror(remote, local, log)
	writes := storage.NewQueue(mirror, log)
	writes.Start(ctx)

	entries, settings := mirror.Load(ctx)

	store := schedule.NewStore(log)
	store.Seed(entries)
	settingsState := schedule.NewSettingsState(settings, log)

	// ── Speech ───────────────────────────────────────────────────

	// The audio device is independent of the synthesis provider: the
	// chime is a locally rendered clip, so the player is opened even
	// when TTS never will be. Only a failed device init degrades it.
	var player domain.AudioPlayer = speech.NewNoOpPlayer(log)
	var otoPlayer *speech.Player
	if p, err := speech.NewPlayer(log); err != nil {
		log.Error("audio player init failed, audio output disabled: %v", err)
	} else {
		player = p
		otoPlayer = p
	}

	var synth domain.Synthesizer = speech.NewNoOpSynthesizer(log)

	azureKey := os.Getenv(speech.EnvAzureSpeechKey)
	azureRegion := os.Getenv(speech.EnvAzureSpeechRegion)

	if azureKey != "" && azureRegion != "" && !*noSpeech {
		synth = speech.NewAzureClient(azureKey, azureRegion, log)
		log.Info("TTS enabled (voice=%s, region=%s)", settings.VoiceName, azureRegion)
	} else if !*noSpeech {
		log.Info("TTS disabled: set %s and %s env vars to enable", speech.EnvAzureSpeechKey, speech.EnvAzureSpeechRegion)
	}

	fallback := speech.NewEspeakSpeaker(*espeakBin, speech.FallbackLocale, log)
	cache := speech.NewAudioCache(*cacheDir, *diskCache, log)

	announcer := announce.NewSequencer(synth, player, fallback, log,
		announce.WithCache(cache),
	)

	// ── Trigger engine ───────────────────────────────────────────

	engine := trigger.New(store, settingsState, announcer, log)
	engine.Start(ctx)
	defer engine.Stop()

	// ── UI ───────────────────────────────────────────────────────

	status := &statusSource{store: store, settings: settingsState, engine: engine}
	ui := display.NewUI(status)
	parser := command.NewKeywordParser(log)

	app := &bellApp{
		store:    store,
		settings: settingsState,
		engine:   engine,
		writes:   writes,
		parser:   parser,
		log:      log,
		ui:       ui,
	}

	fmt.Println(display.RenderBanner())
	fmt.Println(display.BannerStyle.Render("  Type 'help' for commands, 'quit' to exit."))
	if mirror.RemoteEnabled() {
		fmt.Println(display.BannerStyle.Render("  Schedule synced with the remote database."))
	} else {
		fmt.Println(display.BannerStyle.Render("  Running from local snapshots only."))
	}
	fmt.Println()

	// Run app logic in a background goroutine.
	go func() {
		ui.WaitReady()
		app.run(ctx)
		ui.Quit()
	}()

	// Bubble Tea owns the terminal — blocks until quit.
	if err := ui.Run(); err != nil {
		log.Error("display: %v", err)
	}
	cancel()

	// Cut off any announcement still playing so quit is immediate.
	if otoPlayer != nil {
		otoPlayer.Stop()
	}
}

// statusSource adapts the schedule state and trigger engine to the
// display's status bar.
type statusSource struct {
	store    *schedule.Store
	settings *schedule.SettingsState
	engine   *trigger.Engine
}

func (s *statusSource) NextBell(nowMinute string) (domain.ScheduleEntry, bool) {
	return s.store.NextBell(nowMinute)
}

func (s *statusSource) Announcing() bool {
	return s.engine.Announcing()
}

func (s *statusSource) AutoEnabled() bool {
	return s.settings.Current().AutoTriggerEnabled
}

type bellApp struct {
	store    *schedule.Store
	settings *schedule.SettingsState
	engine   *trigger.Engine
	writes   *storage.Queue
	parser   domain.CommandParser
	log      *logger.Logger
	ui       *display.UI
}

func (a *bellApp) run(ctx context.Context) {
	a.showStatus()
	a.ui.Println("")
	a.showSchedule()

	uiCh := a.ui.InputChan()

	for {
		var input string
		var ok bool

		select {
		case <-ctx.Done():
			return
		case input, ok = <-uiCh:
			if !ok {
				return
			}
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}

		cmd, err := a.parser.Parse(ctx, input)
		if err != nil {
			a.log.Error("parsing input: %v", err)
			continue
		}

		a.log.Debug("command: %s (payload=%q)", cmd.Type, cmd.Payload)
		if quit := a.handleCommand(ctx, cmd); quit {
			return
		}
	}
}

// handleCommand dispatches one parsed command. Returns true on quit.
func (a *bellApp) handleCommand(ctx context.Context, cmd *domain.Command) bool {
	switch cmd.Type {
	case domain.CommandHelp:
		a.showHelp()
	case domain.CommandList:
		a.showSchedule()
	case domain.CommandAdd:
		a.addEntry(cmd.Payload)
	case domain.CommandEdit:
		a.editEntry(cmd.Payload)
	case domain.CommandDelete:
		a.deleteEntry(cmd.Payload)
	case domain.CommandEnable:
		a.setEntryActive(cmd.Payload, true)
	case domain.CommandDisable:
		a.setEntryActive(cmd.Payload, false)
	case domain.CommandTest:
		a.testAnnouncement(ctx, cmd.Payload)
	case domain.CommandAutoOn:
		a.setAutoTrigger(true)
	case domain.CommandAutoOff:
		a.setAutoTrigger(false)
	case domain.CommandSchool:
		a.setSchoolName(cmd.Payload)
	case domain.CommandVoice:
		a.setVoice(cmd.Payload)
	case domain.CommandStatus:
		a.showStatus()
	case domain.CommandQuit:
		a.ui.PrintHint("Goodbye.")
		time.Sleep(200 * time.Millisecond)
		return true
	case domain.CommandUnknown:
		a.ui.PrintHint(fmt.Sprintf("Didn't understand %q — type 'help' for commands.", cmd.Payload))
	}
	return false
}

// mirrorEntrySaved queues one entry write plus a fresh snapshot for the
// persistence worker. Writes land in command order.
func (a *bellApp) mirrorEntrySaved(entry domain.ScheduleEntry) {
	a.writes.EntrySaved(entry, a.store.Sorted())
}

func (a *bellApp) mirrorEntryDeleted(id string) {
	a.writes.EntryDeleted(id, a.store.Sorted())
}

func (a *bellApp) mirrorSettings(settings domain.Settings) {
	a.writes.SettingsChanged(settings)
}

// entryAt resolves a 1-based list position to the entry it denotes.
func (a *bellApp) entryAt(payload string) (domain.ScheduleEntry, bool) {
	sorted := a.store.Sorted()
	idx, err := command.ParseIndex(payload, len(sorted))
	if err != nil {
		a.ui.PrintUrgent(fmt.Sprintf("Error: %v", err))
		return domain.ScheduleEntry{}, false
	}
	return sorted[idx], true
}

func (a *bellApp) addEntry(payload string) {
	if payload == "" {
		a.ui.PrintHint("Usage: add <period> | <start> | <end> | <honorific> | <teacher> | <subject> | <class>")
		a.ui.PrintHint("Example: add 1 | 07:00 | 07:45 | bapak | Budi Santoso | Matematika | X-A")
		return
	}

	entry, err := command.ParseEntryFields(payload)
	if err != nil {
		a.ui.PrintUrgent(fmt.Sprintf("Error: %v", err))
		return
	}

	added := a.store.Add(entry)
	a.mirrorEntrySaved(added)
	a.ui.PrintHeader(fmt.Sprintf("Added period %d at %s (%s, %s).", added.Period, added.StartTime, added.Subject, added.ClassName))
	a.showSchedule()
}

func (a *bellApp) editEntry(payload string) {
	parts := strings.SplitN(payload, "|", 2)
	if len(parts) != 2 {
		a.ui.PrintHint("Usage: edit <n> | <period> | <start> | <end> | <honorific> | <teacher> | <subject> | <class>")
		return
	}

	target, ok := a.entryAt(parts[0])
	if !ok {
		return
	}

	fields, err := command.ParseEntryFields(strings.TrimSpace(parts[1]))
	if err != nil {
		a.ui.PrintUrgent(fmt.Sprintf("Error: %v", err))
		return
	}

	fields.ID = target.ID
	fields.IsActive = target.IsActive
	updated, err := a.store.Update(fields)
	if err != nil {
		a.ui.PrintUrgent(fmt.Sprintf("Error: %v", err))
		return
	}

	a.mirrorEntrySaved(updated)
	a.ui.PrintHeader(fmt.Sprintf("Updated period %d at %s.", updated.Period, updated.StartTime))
	a.showSchedule()
}

func (a *bellApp) deleteEntry(payload string) {
	target, ok := a.entryAt(payload)
	if !ok {
		return
	}

	if err := a.store.Remove(target.ID); err != nil {
		a.ui.PrintUrgent(fmt.Sprintf("Error: %v", err))
		return
	}

	a.mirrorEntryDeleted(target.ID)
	a.ui.PrintHeader(fmt.Sprintf("Deleted period %d at %s.", target.Period, target.StartTime))
	a.showSchedule()
}

func (a *bellApp) setEntryActive(payload string, active bool) {
	target, ok := a.entryAt(payload)
	if !ok {
		return
	}

	updated, err := a.store.SetActive(target.ID, active)
	if err != nil {
		a.ui.PrintUrgent(fmt.Sprintf("Error: %v", err))
		return
	}

	a.mirrorEntrySaved(updated)
	state := "enabled"
	if !active {
		state = "disabled"
	}
	a.ui.PrintHeader(fmt.Sprintf("Period %d at %s %s.", updated.Period, updated.StartTime, state))
}

func (a *bellApp) testAnnouncement(ctx context.Context, payload string) {
	sorted := a.store.Sorted()
	if len(sorted) == 0 {
		a.ui.PrintHint("No schedule entries to test.")
		return
	}

	entry := sorted[0]
	if payload != "" {
		e, ok := a.entryAt(payload)
		if !ok {
			return
		}
		entry = e
	}

	a.ui.PrintAnnounce(announce.LineTestHeader(entry))

	// Run in a goroutine so the command loop keeps accepting input
	// while the chime and narration play.
	go func() {
		if err := a.engine.Test(ctx, entry); err != nil {
			if errors.Is(err, domain.ErrAnnouncementInFlight) {
				a.ui.PrintHint("An announcement is already playing — try again when it finishes.")
				return
			}
			a.ui.PrintUrgent(fmt.Sprintf("Test failed: %v", err))
			return
		}
		a.ui.PrintAnnounce("Test announcement finished.")
	}()
}

func (a *bellApp) setAutoTrigger(enabled bool) {
	settings := a.settings.SetAutoTrigger(enabled)
	a.mirrorSettings(settings)
	if enabled {
		a.ui.PrintHeader("Automatic bells enabled.")
	} else {
		a.ui.PrintHeader("Automatic bells disabled — entries can still be tested manually.")
	}
}

func (a *bellApp) setSchoolName(payload string) {
	if payload == "" {
		a.ui.PrintHint(fmt.Sprintf("School name is %q. Usage: school <name>", a.settings.Current().SchoolName))
		return
	}

	settings := a.settings.SetSchoolName(payload)
	a.mirrorSettings(settings)
	a.ui.PrintHeader(fmt.Sprintf("School name set to %q.", settings.SchoolName))
}

func (a *bellApp) setVoice(payload string) {
	if payload == "" {
		a.ui.PrintHint(fmt.Sprintf("Voice is %s. Available voices:", a.settings.Current().VoiceName))
		for _, v := range domain.Voices {
			a.ui.PrintRow("  " + v)
		}
		return
	}

	settings, err := a.settings.SetVoice(payload)
	if err != nil {
		a.ui.PrintUrgent(fmt.Sprintf("Error: unknown voice %q — type 'voice' to list them.", payload))
		return
	}

	a.mirrorSettings(settings)
	a.ui.PrintHeader(fmt.Sprintf("Voice set to %s.", settings.VoiceName))
}

func (a *bellApp) showSchedule() {
	sorted := a.store.Sorted()

	a.ui.PrintHeader(fmt.Sprintf("Schedule (%d entries):", len(sorted)))
	if len(sorted) == 0 {
		a.ui.PrintHint("  empty — use 'add' to create the first period")
		return
	}

	for i, e := range sorted {
		marker := " "
		if !e.IsActive {
			marker = "·"
		}
		a.ui.PrintRow(fmt.Sprintf("[%d]%s %s–%s  P%-2d %-18s %s %s (%s)",
			i+1, marker, e.StartTime, e.EndTime, e.Period, e.Subject,
			e.Honorific, e.Teacher, e.ClassName))
	}
	a.ui.PrintHint("  · = disabled entry")
}

func (a *bellApp) showStatus() {
	settings := a.settings.Current()

	a.ui.PrintHeader("Status:")
	a.ui.PrintRow(fmt.Sprintf("School:  %s", settings.SchoolName))
	a.ui.PrintRow(fmt.Sprintf("Voice:   %s", settings.VoiceName))
	auto := "on"
	if !settings.AutoTriggerEnabled {
		auto = "off"
	}
	a.ui.PrintRow(fmt.Sprintf("Auto:    %s", auto))
	a.ui.PrintRow(fmt.Sprintf("Entries: %d", a.store.Len()))

	if next, ok := a.store.NextBell(time.Now().Format("15:04")); ok {
		a.ui.PrintRow(fmt.Sprintf("Next:    %s — period %d, %s (%s)", next.StartTime, next.Period, next.Subject, next.ClassName))
	} else {
		a.ui.PrintHint("Next:    no more bells today")
	}

	if a.engine.Announcing() {
		a.ui.PrintAnnounce("An announcement is playing right now.")
	}

	if a.writes.Mirror().RemoteEnabled() {
		a.ui.PrintHint("Sync:    remote database + local snapshots")
	} else {
		a.ui.PrintHint("Sync:    local snapshots only")
	}
}

func (a *bellApp) showHelp() {
	a.ui.PrintHeader("Commands:")
	a.ui.PrintRow("  list / ls         Show the schedule")
	a.ui.PrintRow("  add <fields>      Add an entry (fields separated by '|')")
	a.ui.PrintRow("                    add 1 | 07:00 | 07:45 | bapak | Budi Santoso | Matematika | X-A")
	a.ui.PrintRow("  edit <n> | <f>    Replace entry n with new fields")
	a.ui.PrintRow("  delete <n>        Delete entry n")
	a.ui.PrintRow("  on <n> / off <n>  Enable or disable entry n")
	a.ui.PrintRow("  test [n]          Play an announcement now (default: first entry)")
	a.ui.PrintRow("  auto on / off     Toggle automatic bell triggering")
	a.ui.PrintRow("  school <name>     Set the school name used in announcements")
	a.ui.PrintRow("  voice [name]      Show or set the announcement voice")
	a.ui.PrintRow("  status            Show settings and the next bell")
	a.ui.PrintRow("  help              Show this message")
	a.ui.PrintRow("  quit / exit       Exit")
}
