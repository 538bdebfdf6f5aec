// Package version хранит версию сборки. Значение подменяется при сборке
// через -ldflags "-X telegram-number-checker/internal/support/version.Version=...".
package version

// Version — версия приложения; "dev" для локальных сборок.
var Version = "dev"
