package logger

import "github.com/ideamans/go-l10n"

func init() {
	l10n.Register("ja", l10n.LexiconMap{
		// Dispatch level messages (info)
		"Resolved %s as %s format":        "%s を %s フォーマットとして解決しました",
		"Fetching %s":                     "%s を取得中",
		"Fetched %s to %s":                "%s を %s に取得しました",
		"Decompressing %s source":         "%s ソースを展開中",
		"Enumerated %d files in series":   "シリーズ内の %d ファイルを列挙しました",
		"Skipping %s: not a series file":  "%s をスキップ: シリーズファイルではありません",

		// Plugin components (debug)
		"Decoded %d frames":               "%d フレームをデコードしました",
		"Appended frame %d (%dx%d)":       "フレーム %d (%dx%d) を追加しました",
		"Flushed %d frames to %s":         "%d フレームを %s に書き出しました",
		"Capture device /dev/video%d started": "キャプチャデバイス /dev/video%d を開始しました",
		"Capture device stopped":          "キャプチャデバイスを停止しました",

		// Errors and warnings
		"Source %s not found":             "ソース %s が見つかりません",
		"Fetch failed: %s":                "取得に失敗しました: %s",
		"No plugin matches %s":            "%s に一致するプラグインがありません",
	})
}
