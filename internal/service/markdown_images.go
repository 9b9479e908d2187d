package service

import (
	"regexp"
	"strings"
)

var markdownImagePattern = regexp.MustCompile(`!\[[^\]]*]\((<[^>]+>|[^)\s]+)([^)]*)\)`)

// ImageURLs 提取正文中引用的图片地址，保持出现顺序并去重。
func ImageURLs(markdown string) []string {
	matches := markdownImagePattern.FindAllStringSubmatch(markdown, -1)
	if len(matches) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(matches))
	urls := make([]string, 0, len(matches))
	for _, groups := range matches {
		url := strings.TrimSuffix(strings.TrimPrefix(groups[1], "<"), ">")
		if url == "" {
			continue
		}
		if _, ok := seen[url]; ok {
			continue
		}
		seen[url] = struct{}{}
		urls = append(urls, url)
	}
	return urls
}
