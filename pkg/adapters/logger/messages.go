package logger

import "github.com/ideamans/go-l10n"

func init() {
	l10n.Register("ja", l10n.LexiconMap{
		// Session level (info)
		"Selecting region":                         "録画範囲を選択中",
		"Selection cancelled":                      "範囲選択がキャンセルされました",
		"Region %s is too small, ignoring":         "範囲 %s は小さすぎるため無視します",
		"Recording region %s":                      "範囲 %s を録画中",
		"Recording stopped (%s)":                   "録画を停止しました (%s)",
		"Recording saved to %s":                    "録画を %s に保存しました",
		"Auto-stop after %s":                       "%s 後に自動停止します",
		"Selection already in progress":            "範囲選択はすでに進行中です",
		"Cannot start a selection while recording": "録画中は範囲選択を開始できません",

		// Selector
		"Overlay shown over %dx%d": "%dx%d のオーバーレイを表示しました",
		"Overlay closed":           "オーバーレイを閉じました",

		// Capture stream
		"Capturing display %d at %.1f fps":       "ディスプレイ %d を %.1f fps でキャプチャ中",
		"Capture stream stopped after %d frames": "%d フレームでキャプチャを停止しました",

		// Writer
		"Opened writer %s (%dx%d)":                 "ライターを開きました %s (%dx%d)",
		"Writer finalized: %d written, %d dropped": "ライター完了: 書き込み %d, 破棄 %d",
		"Discarded partial recording %s":           "未完成の録画 %s を破棄しました",

		// Tray
		"Quit requested": "終了が要求されました",

		// Warnings
		"Frame grab failed: %s":           "フレーム取得に失敗しました: %s",
		"Debug sink write failed: %s":     "デバッグ出力に失敗しました: %s",
		"Overlay close failed: %s":        "オーバーレイを閉じられませんでした: %s",
		"Overlay present failed: %s":      "オーバーレイの描画に失敗しました: %s",
		"Failed to reveal %s: %s":         "%s を表示できませんでした: %s",
		"Recording failed: %s":            "録画に失敗しました: %s",
		"Failed to inspect recording: %s": "録画の解析に失敗しました: %s",

		// Errors
		"Frame encode failed: %s":       "フレームのエンコードに失敗しました: %s",
		"Failed to start recording: %s": "録画の開始に失敗しました: %s",
		"Failed to stop recording: %s":  "録画の停止に失敗しました: %s",
		"Failed to begin selection: %s": "範囲選択の開始に失敗しました: %s",
	})
}
