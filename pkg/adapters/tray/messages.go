package tray

import "github.com/ideamans/go-l10n"

func init() {
	l10n.Register("ja", l10n.LexiconMap{
		"Record Region":                  "範囲を録画",
		"Stop Recording":                 "録画を停止",
		"Selecting Region…":              "範囲を選択中…",
		"Select a region and record it":  "範囲を選択して録画",
		"No recordings yet":              "録画はまだありません",
		"Show the most recent recording": "最新の録画を表示",
		"Show %s  %s  %s":                "%s を表示  %s  %s",
		"Quit":                           "終了",
		"Quit %s":                        "%s を終了",
		"%s: recording failed: %s":       "%s: 録画に失敗しました: %s",
	})
}
