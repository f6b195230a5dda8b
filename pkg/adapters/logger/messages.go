package logger

import "github.com/ideamans/go-l10n"

func init() {
	l10n.Register("ja", l10n.LexiconMap{
		// Level tags
		"debug":   "デバッグ",
		"warning": "警告",
		"error":   "エラー",

		// Orchestration level messages (info)
		"Starting pipeline":               "パイプラインを開始します",
		"Pipeline completed successfully": "パイプラインが正常に完了しました",
		"Interrupted, shutting down...":   "中断されました。シャットダウン中...",
		"Encoding %s to %s (%s)":          "%s を %s にエンコード中 (%s)",
		"Encoding %s with %s":             "%s を %s でエンコード中",
		"Encoded %d frames in %v":         "%d フレームを %v でエンコードしました",
		"Encoded %d frames into %d packets (%d bytes)": "%d フレームを %d パケット (%d バイト) にエンコードしました",
		"Output saved to %s":              "出力を %s に保存しました",
		"Summary saved to %s":             "サマリーを %s に保存しました",
		"Serving metrics on %s":           "%s でメトリクスを公開中",
		"Sent %d RTP packets (%d bytes) to %s": "%d RTP パケット (%d バイト) を %s へ送信しました",

		// Encode stage
		"Encoded %d frames":                     "%d フレームをエンコード済み",
		"Resized to %s at frame %d":             "フレーム %[2]d で %[1]s にリサイズしました",
		"Resize to %s at frame %d rejected: %v": "フレーム %[2]d での %[1]s へのリサイズは拒否されました: %[3]v",
		"Frame %d not saved: %v":                "フレーム %d を保存できませんでした: %v",

		// Encoder component
		"Initialized %s encoder: %dx%d, %d threads, %d kbps": "%s エンコーダを初期化: %dx%d, %d スレッド, %d kbps",
		"Reconfigured encoder: %dx%d, %d kbps":               "エンコーダを再設定: %dx%d, %d kbps",
		"VPX encoding error: %v":                             "VPX エンコードエラー: %v",
		"Failed to destroy VPX encoder: %v":                  "VPX エンコーダの破棄に失敗しました: %v",

		// Screencast component
		"Screencast started: %s at %s": "スクリーンキャスト開始: %s (%s)",
		"Screencast dropped %d frames": "スクリーンキャストで %d フレームを取りこぼしました",

		// Errors
		"Failed to encode video: %s":      "動画のエンコードに失敗しました: %s",
		"Failed to write output: %s":      "出力の書き込みに失敗しました: %s",
		"Failed to write summary: %v":     "サマリーの書き込みに失敗しました: %v",
		"Failed to save debug config: %v": "デバッグ設定の保存に失敗しました: %v",
		"Failed to save frame %d: %v":     "フレーム %d の保存に失敗しました: %v",
		"Failed to save packet %d: %v":    "パケット %d の保存に失敗しました: %v",
		"Metrics server failed: %v":       "メトリクスサーバーが失敗しました: %v",

		// Summary labels
		"Encoding Summary":  "エンコードサマリー",
		"Source":            "入力",
		"Settings":          "設定",
		"Item":              "項目",
		"Value":             "値",
		"Kind":              "種類",
		"Input":             "入力元",
		"Source Size":       "入力サイズ",
		"Profile":           "プロファイル",
		"Frame Size":        "フレームサイズ",
		"Bitrate":           "ビットレート",
		"Variable":          "可変",
		"Framerate":         "フレームレート",
		"Keyframe Interval": "キーフレーム間隔",
		"Forced Keyframes":  "強制キーフレーム",
		"every":             "間隔",
		"Container":         "コンテナ",
		"Output":            "出力",
		"File":              "ファイル",
		"Frames":            "フレーム数",
		"Packets":           "パケット数",
		"Keyframes":         "キーフレーム数",
		"Bitstream":         "ビットストリーム",
		"File Size":         "ファイルサイズ",
		"Duration":          "長さ",
		"Average Bitrate":   "平均ビットレート",
		"Final Size":        "最終サイズ",
		"Resizes":           "リサイズ",
		"rejected":          "拒否",
		"Encoding Time":     "エンコード時間",
		"Generated at":      "生成日時",
	})
}
