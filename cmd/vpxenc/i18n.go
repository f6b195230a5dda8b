// Package main provides localization for the vpxenc CLI.
package main

import (
	"github.com/ideamans/go-l10n"
)

func init() {
	// Register Japanese translations for CLI messages.
	l10n.Register("ja", l10n.LexiconMap{
		// Flag categories
		"Output":   "出力",
		"Encoding": "エンコード",
		"Source":   "入力",
		"Browser":  "ブラウザ設定",
		"Debug":    "デバッグ",
		"Logging":  "ログとメトリクス",

		// Root command
		"Encode raw video to VP8/VP9 with libvpx": "libvpx で映像を VP8/VP9 にエンコード",
		"vpxenc encodes raw frames, a synthetic test pattern or a browser screencast to VP8/VP9 and writes IVF, MP4 or RTP.": "vpxenc は生フレーム、テストパターン、ブラウザのスクリーンキャストを VP8/VP9 にエンコードし、IVF・MP4・RTP で出力します。",

		// Commands
		"Encode a raw file or a test pattern":                     "生ファイルまたはテストパターンをエンコード",
		"Encode a screencast of a web page":                       "Webページのスクリーンキャストをエンコード",
		"Show codec and frame information of an IVF or MP4 file": "IVF/MP4 ファイルのコーデックとフレーム情報を表示",
		"Show version information":                                "バージョン情報を表示",
		"vpxenc version %s":                                       "vpxenc バージョン %s",
		"libvpx %s":                                               "libvpx %s",
		"libvpx not available (built without cgo)":                "libvpx は利用できません（cgo なしでビルド）",

		// Global flags
		"YAML configuration file":                              "YAML 設定ファイル",
		"Log level (debug, info, warn, error)":                 "ログレベル（debug, info, warn, error）",
		"Log format (console, text, json)":                     "ログ形式（console, text, json）",
		"Suppress all log output":                              "すべてのログ出力を抑制",
		"Serve Prometheus metrics on this address (e.g. :9090)": "このアドレスで Prometheus メトリクスを公開（例: :9090）",

		// Output flags
		"Output file path":                      "出力ファイルパス",
		"Output container (ivf, mp4, rtp)":      "出力コンテナ（ivf, mp4, rtp）",
		"Send RTP packets to this UDP address":  "この UDP アドレスへ RTP パケットを送信",
		"Write a markdown summary to this path": "このパスに Markdown サマリーを書き出す",

		// Encoding flags
		"Codec profile (vp8, vp9, vp9-0, vp9-2)":                    "コーデックプロファイル（vp8, vp9, vp9-0, vp9-2）",
		"Encoded frame size WxH (default: source size)":             "エンコードサイズ WxH（デフォルト: 入力サイズ）",
		"Target bitrate in bits per second (0 = variable)":          "目標ビットレート bps（0 = 可変）",
		"Maximum distance between keyframes in frames":              "キーフレーム間の最大フレーム数",
		"Frames per second":                                         "フレームレート",
		"Force a keyframe every N frames":                           "N フレームごとにキーフレームを強制",
		"Stop after N frames":                                       "N フレームで停止",
		"Reconfigure at a frame: FRAME:WxH[:BITRATE] (repeatable)": "指定フレームで再設定: FRAME:WxH[:BITRATE]（複数指定可）",

		// Source flags
		"Raw pixel format (i420, nv12, argb, abgr, ...)":     "生データのピクセル形式（i420, nv12, argb, abgr, ...）",
		"Raw frame size WxH":                                 "生フレームのサイズ WxH",
		"Encode a synthetic test pattern instead of a file": "ファイルの代わりにテストパターンをエンコード",
		"Number of test pattern frames":                      "テストパターンのフレーム数",
		"TrueType font for the pattern frame counter":        "フレームカウンタ用の TrueType フォント",

		// Browser flags
		"Capture duration":                "キャプチャ時間",
		"Browser viewport WxH":            "ブラウザのビューポート WxH",
		"Screencast JPEG quality (1-100)": "スクリーンキャストの JPEG 品質（1-100）",
		"Path to Chrome executable (falls back to CHROME_PATH env, then system default)": "Chrome 実行ファイルのパス（CHROME_PATH 環境変数、システムデフォルトの順にフォールバック）",
		"Run browser in non-headless mode":            "ブラウザを非ヘッドレスモードで実行",
		"Browser user agent":                          "ブラウザのユーザーエージェント",
		"Ignore HTTPS certificate errors":             "HTTPS証明書エラーを無視",
		"HTTP proxy server (e.g., http://proxy:8080)": "HTTPプロキシサーバー（例: http://proxy:8080）",

		// Debug flags
		"Save the configuration, the first frame and every packet": "設定、最初のフレーム、全パケットを保存",
		"Directory for debug output":                               "デバッグ出力ディレクトリ",

		// Errors and probe output
		"Error: %v":           "エラー: %v",
		"capture needs a URL": "capture には URL が必要です",
		"probe needs a file":  "probe にはファイルが必要です",
		"--output is required for ivf and mp4 containers": "ivf と mp4 コンテナには --output が必要です",
		"File: %s":                         "ファイル: %s",
		"Container: %s":                    "コンテナ: %s",
		"Codec: %s":                        "コーデック: %s",
		"Size: %dx%d":                      "サイズ: %dx%d",
		"Frames: %d (%d keyframes)":        "フレーム: %d（キーフレーム %d）",
		"Duration: %v":                     "長さ: %v",
		"VP profile %d, level %d, %d-bit": "VP プロファイル %d, レベル %d, %d ビット",
	})
}
