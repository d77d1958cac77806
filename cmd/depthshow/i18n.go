// Package main provides localization for the depthshow CLI.
package main

import (
	"github.com/ideamans/go-l10n"
)

func init() {
	// Register Japanese translations for CLI messages.
	l10n.Register("ja", l10n.LexiconMap{
		// Flag categories
		"Configuration": "設定",
		"Logging":       "ログ",
		"Source":        "ソース",
		"Color":         "色",
		"Processing":    "処理",
		"Preview":       "プレビュー",
		"Benchmark":     "ベンチマーク",

		// Root command
		"Visualize depth sensor frames in false color":                             "深度センサーのフレームを疑似カラーで可視化",
		"depthshow colors depth frames by distance and shows them in the browser.": "depthshowは深度フレームを距離で色分けし、ブラウザに表示します。",

		// Serve command
		"Process frames and serve a live preview over HTTP":             "フレームを処理し、HTTPでライブプレビューを配信",
		"Read depth frames, color them and stream the result as MJPEG.": "深度フレームを読み込んで色付けし、MJPEGとして配信します。",

		// Bench command
		"Process frames without a display and report throughput":         "表示なしでフレームを処理し、スループットを報告",
		"Process a fixed number of frames and write a Markdown summary.": "指定数のフレームを処理し、Markdownのサマリーを出力します。",

		// Version command
		"Show version information": "バージョン情報を表示",
		"depthshow version %s":     "depthshow バージョン %s",

		// Global flags
		"YAML configuration file":                         "YAML設定ファイル",
		"Sensor preset (kinect-v2, kinect-v1, realsense)": "センサープリセット（kinect-v2, kinect-v1, realsense）",
		"Log level (debug, info, warn, error)":            "ログレベル（debug, info, warn, error）",
		"Suppress all log output":                         "全てのログ出力を抑制",

		// Source flags
		"Replay frames from a recorded stream instead of the synthetic scene": "合成シーンの代わりに記録済みストリームを再生",
		"Restart the replay at the end of the stream":                         "ストリームの終端で再生を先頭から再開",
		"Synthetic frame width":                                               "合成フレームの幅",
		"Synthetic frame height":                                              "合成フレームの高さ",
		"Minimum reliable distance in millimeters":                            "有効距離の最小値（ミリメートル）",
		"Maximum reliable distance in millimeters":                            "有効距離の最大値（ミリメートル）",
		"Source frame rate (0 = as fast as possible)":                         "ソースのフレームレート（0 = 最速）",
		"Toggle the synthetic resolution every N frames":                      "Nフレームごとに合成フレームの解像度を切り替え",

		// Color flags
		"Depth in millimeters where the hue completes one turn":    "色相が一周する深度（ミリメートル）",
		"Marker palette (classic, highlight)":                      "マーカー配色（classic, highlight）",
		"Map every pixel directly instead of using a lookup table": "ルックアップテーブルを使わず各ピクセルを直接変換",

		// Processing flags
		"Skip frames of another size instead of resizing": "サイズの異なるフレームを再構成せずにスキップ",
		"Stop after this many frames (0 = unlimited)":     "指定フレーム数で停止（0 = 無制限）",

		// Preview flags
		"Preview server address":                    "プレビューサーバーのアドレス",
		"Preview scale factor":                      "プレビューの拡大率",
		"Scaling filter (nearest, smooth)":          "拡大フィルター（nearest, smooth）",
		"Preview JPEG quality (1-100)":              "プレビューのJPEG品質（1-100）",
		"Frame rate cap per stream (0 = unlimited)": "ストリームごとのフレームレート上限（0 = 無制限）",
		"Hide the legend bar":                       "凡例バーを非表示",
		"Hide the status row":                       "ステータス行を非表示",

		// Bench flags
		"Number of frames to process (default: 300)":         "処理するフレーム数（デフォルト: 300）",
		"Output execution summary to file (Markdown format)": "実行サマリーをファイルに出力（Markdown形式）",

		// Runtime messages
		"Replaying frames from %s":                          "%s からフレームを再生します",
		"Using synthetic source (%dx%d, reliable %d-%d mm)": "合成ソースを使用します (%dx%d, 有効範囲 %d-%d mm)",
		"Summary saved to %s":                               "サマリーを %s に保存しました",
		"Failed to write summary: %s":                       "サマリーの書き込みに失敗しました: %s",

		// Summary content
		"Depth Benchmark Summary": "深度ベンチマークサマリー",
		"Kind":                    "種類",
		"Path":                    "パス",
		"Resolution":              "解像度",
		"Reliable range":          "有効範囲",
		"Settings":                "設定",
		"Preset":                  "プリセット",
		"Markers":                 "マーカー",
		"Hue ceiling":             "色相の上限",
		"Lookup table":            "ルックアップテーブル",
		"Auto reconfigure":        "自動再構成",
		"Bytes per pixel":         "ピクセルあたりのバイト数",
		"Results":                 "実行結果",
		"Frames read":             "読み込みフレーム数",
		"Frames processed":        "処理フレーム数",
		"Frames skipped":          "スキップフレーム数",
		"Reconfigurations":        "再構成回数",
		"Duration":                "所要時間",
		"Throughput":              "スループット",
		"Average process time":    "平均処理時間",
		"Max process time":        "最大処理時間",
		"Stopped by":              "停止理由",
		"Pixels":                  "ピクセル",
		"No data":                 "データなし",
		"Out of range":            "範囲外",
		"In range":                "範囲内",
		"Generated at":            "生成日時",
		"Item":                    "項目",
		"Value":                   "値",
		"yes":                     "はい",
		"no":                      "いいえ",
	})
}
