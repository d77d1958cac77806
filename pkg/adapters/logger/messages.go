package logger

import "github.com/ideamans/go-l10n"

func init() {
	l10n.Register("ja", l10n.LexiconMap{
		// Processing loop (info)
		"Starting processing loop":                   "処理ループを開始します",
		"Source exhausted after %d frames":           "%d フレームでソースが終了しました",
		"Interrupted, shutting down...":              "中断されました。シャットダウン中...",
		"Processed %d frames (%d skipped), %.1f fps": "%d フレームを処理しました (スキップ %d), %.1f fps",
		"Reconfiguring for %dx%d frames":             "%dx%d フレーム用に再構成します",

		// Processor
		"Configured buffers: %dx%d, %d bytes per pixel": "バッファを構成しました: %dx%d, %d バイト/ピクセル",
		"Frame size matches again, resuming":            "フレームサイズが一致したため処理を再開します",
		"Skipping frame: %s":                            "フレームをスキップします: %s",

		// Sources
		"Switching synthetic resolution to %dx%d":       "合成フレームの解像度を %dx%d に切り替えます",
		"Replay restarted from the beginning (loop %d)": "再生を先頭から再開しました (%d 回目)",

		// Preview
		"Legend rebuilt for %d-%d mm":             "凡例を %d-%d mm で再生成しました",
		"Preview rendered for frame %d: %d bytes": "フレーム %d のプレビューを生成しました: %d バイト",
		"Preview available at http://%s/":         "プレビューは http://%s/ で表示できます",
		"Preview server stopped":                  "プレビューサーバーを停止しました",
		"%s %s -> %d in %s":                       "%s %s -> %d (%s)",
		"Stream client connected: %s":             "ストリームクライアントが接続しました: %s",
		"Stream client disconnected: %s":          "ストリームクライアントが切断しました: %s",

		// Warnings
		"Skipping frames: got %dx%d with %d samples, configured for %dx%d": "フレームをスキップします: %dx%d (%d サンプル) を受信、構成は %dx%d",
		"Failed to configure processor: %s":                                "プロセッサの構成に失敗しました: %s",
		"Failed to render preview: %s":                                     "プレビューの生成に失敗しました: %s",

		// Errors
		"Failed to read frame: %s": "フレームの読み込みに失敗しました: %s",
	})
}
