// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package views renders HTML pages from embedded templates.

	r, err := views.New()
	err = r.RenderPosts(w, page)

Post content is passed in raw and escaped by html/template. Newlines are
rendered as <br> after each line has been escaped.

TimeFormatter renders timestamps in a fixed zone with a strftime pattern;
the defaults are Asia/Tokyo and "%Y年%m月%d日 %H時%M分%S秒".
*/
package views
