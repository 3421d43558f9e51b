// Package main provides localization for the designstage CLI.
package main

import (
	"github.com/ideamans/go-l10n"
)

func init() {
	// Register Japanese translations for CLI messages.
	l10n.Register("ja", l10n.LexiconMap{
		// Flag categories
		"Output":            "出力先",
		"Video and Quality": "動画と品質",
		"Debug":             "デバッグ",
		"Logging":           "ログ",

		// Root command
		"Record a region of the screen as MP4 video": "画面の範囲をMP4動画として録画",

		// Global flags
		"YAML configuration file":                       "YAML設定ファイル",
		"Environment file with DESIGNSTAGE_* overrides": "DESIGNSTAGE_* を上書きする環境ファイル",
		"Log level (debug, info, warn, error)":          "ログレベル (debug, info, warn, error)",
		"Suppress log output":                           "ログ出力を抑制",
		"Save intermediate frames for debugging":        "デバッグ用に中間フレームを保存",
		"Directory for debug output":                    "デバッグ出力先ディレクトリ",

		// Record command
		"Drag to select a region, then record until Ctrl+C or the maximum duration.": "ドラッグで範囲を選択し、Ctrl+C または最大録画時間まで録画します。",

		"Select a region and record it":             "範囲を選択して録画",
		"Directory recordings are saved to":         "録画の保存先ディレクトリ",
		"Capture frame rate":                        "キャプチャのフレームレート",
		"Stop automatically after this long":        "この時間が経過したら自動停止",
		"Maximum bitrate in kbps":                   "最大ビットレート (kbps)",
		"H.264 CRF value (0-51, lower is better)":   "H.264 CRF値 (0-51、低いほど高画質)",
		"Path to the ffmpeg binary":                 "ffmpeg のパス",
		"Copy the saved file path to the clipboard": "保存したファイルのパスをクリップボードにコピー",

		// Other commands
		"Run as a menu bar / tray item": "メニューバー / トレイに常駐",
		"List displays":                 "ディスプレイを一覧表示",
		"Show recording metadata":       "録画のメタデータを表示",
		"Show version information":      "バージョン情報を表示",

		// Runtime messages
		"Drag to select a region, press Esc to cancel": "ドラッグで範囲を選択、Esc でキャンセル",
		"Interrupted, finishing recording...":          "中断されました。録画を終了しています...",
		"Nothing recorded":                             "録画されませんでした",
		"Clipboard unavailable: %s":                    "クリップボードを使用できません: %s",
		"Copied %s to the clipboard":                   "%s をクリップボードにコピーしました",
		"missing file argument":                        "ファイルが指定されていません",

		// Output
		"Error: %s":                     "エラー: %s",
		"Dimensions: %s":                "サイズ: %s",
		"Duration: %s":                  "長さ: %s",
		"Codec: %s":                     "コーデック: %s",
		"Frames: %d":                    "フレーム数: %d",
		"Display %d: %dx%d at (%d, %d)": "ディスプレイ %d: %dx%d (%d, %d)",
		"designstage version %s":        "designstage バージョン %s",
	})
}
