// Package main provides localization for the frameio CLI.
package main

import (
	"github.com/ideamans/go-l10n"
)

func init() {
	// Register Japanese translations for CLI messages.
	l10n.Register("ja", l10n.LexiconMap{
		// Root command
		"Read, convert and capture images and video through one plugin registry.": "画像と動画をひとつのプラグインレジストリで読み込み・変換・キャプチャします。",

		// Subcommands
		"List registered formats.":                                              "登録済みフォーマットを一覧表示",
		"Show frame count and metadata of a source.":                            "ソースのフレーム数とメタデータを表示",
		"Convert a source to another format, optionally transforming frames.":   "ソースを別フォーマットへ変換（フレーム変換も可能）",
		"Extract frames of a source as numbered still images.":                  "ソースのフレームを連番静止画として抽出",
		"Capture frames from a camera device.":                                  "カメラデバイスからフレームをキャプチャ",
		"Show version information.":                                             "バージョン情報を表示",

		// Flags
		"Path to a YAML config file.":                             "YAML設定ファイルのパス",
		"Log level (debug, info, warn, error).":                   "ログレベル（debug, info, warn, error）",
		"Suppress all log output.":                                "全てのログ出力を抑制",
		"Source: path, URL, directory or <videoN>.":               "ソース: パス、URL、ディレクトリまたは <videoN>",
		"Source: path, URL or directory.":                         "ソース: パス、URLまたはディレクトリ",
		"Destination file path.":                                  "出力ファイルパス",
		"Force a format by name (e.g. dicom).":                    "フォーマット名を強制指定（例: dicom）",
		"Force the source format by name.":                        "ソースフォーマット名を強制指定",
		"Force the destination format by name.":                   "出力フォーマット名を強制指定",
		"Resize frames to WxH (0 preserves aspect, e.g. 640x0).":  "フレームを WxH にリサイズ（0でアスペクト比維持、例: 640x0）",
		"Convert frames to grayscale.":                            "フレームをグレースケールに変換",
		"Mirror frames horizontally.":                             "フレームを左右反転",
		"Mirror frames vertically.":                               "フレームを上下反転",
		"Rotate frames 90 degrees counter-clockwise.":             "フレームを反時計回りに90度回転",
		"Burn frame index into each frame.":                       "各フレームにフレーム番号を焼き込み",
		"JPEG quality for JPEG and MP4 destinations (1-100).":     "JPEGおよびMP4出力のJPEG品質（1-100）",
		"Frame rate for video destinations.":                      "動画出力のフレームレート",
		"Destination directory for the extracted frames.":         "抽出フレームの出力ディレクトリ",
		"Still image format for the extracted frames.":            "抽出フレームの静止画フォーマット",
		"Destination file path (gif or mp4).":                     "出力ファイルパス（gifまたはmp4）",
		"Camera device index (<videoN>).":                         "カメラデバイス番号（<videoN>）",
		"Number of frames to capture.":                            "キャプチャするフレーム数",
		"Frame rate stamped on the destination video.":            "出力動画に記録するフレームレート",

		// Runtime messages
		"Frames: %d":                    "フレーム数: %d",
		"Frames: unbounded stream":      "フレーム数: 無制限ストリーム",
		"Converting %s to %s...":        "%s を %s へ変換中...",
		"Wrote %d frames to %s":         "%d フレームを %s に書き出しました",
		"Extracted %d frames to %s":     "%d フレームを %s に抽出しました",
		"Capturing %d frames from %s...": "%d フレームを %s からキャプチャ中...",
		"Interrupted, shutting down...": "中断されました。シャットダウン中...",

		// Version command
		"frameio (Go) version %s": "frameio (Go版) バージョン %s",
	})
}
