package config

// Base application details
const AppName = "tomboy"
const DefaultConfigFileName = "config.toml"
const DefaultLogFileName = "tomboy.log"

// Notes live in $XDG_DATA_HOME/tomboy unless configured.
const NotesDirName = "tomboy"

// Undo history
const DefaultMaxUndo = 0 // unbounded

const SystemClipboard = true

// HTTP note browser
const DefaultServerAddr = "127.0.0.1:8420"

// Interactive shell history, kept next to the log.
const ShellHistoryFileName = "shell_history"
