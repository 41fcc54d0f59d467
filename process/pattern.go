package process

import "strings"

// ExtractPatternCaptures matches text against a template containing
// `{name}` placeholders and returns the substring each placeholder
// captured, or ok=false if the literal segments of template don't all
// appear in text in order. Matching is non-greedy: a placeholder captures
// up to the next literal segment's first occurrence.
func ExtractPatternCaptures(template, text string) (map[string]string, bool) {
	segments, names := splitTemplate(template)
	captures := make(map[string]string, len(names))

	rest := text
	for i, seg := range segments {
		if seg.literal {
			idx := strings.Index(rest, seg.text)
			if idx < 0 {
				return nil, false
			}
			if i == 0 && idx != 0 {
				return nil, false
			}
			rest = rest[idx+len(seg.text):]
			continue
		}
		// Placeholder: capture up to the next literal segment, or to
		// the end of rest if this is the final segment.
		if i+1 < len(segments) && segments[i+1].literal {
			idx := strings.Index(rest, segments[i+1].text)
			if idx < 0 {
				return nil, false
			}
			captures[seg.text] = rest[:idx]
			rest = rest[idx:]
		} else {
			captures[seg.text] = rest
			rest = ""
		}
	}
	return captures, true
}

type templateSegment struct {
	literal bool
	text    string
}

func splitTemplate(template string) ([]templateSegment, []string) {
	var segs []templateSegment
	var names []string
	i := 0
	for i < len(template) {
		open := strings.IndexByte(template[i:], '{')
		if open < 0 {
			segs = append(segs, templateSegment{literal: true, text: template[i:]})
			break
		}
		open += i
		if open > i {
			segs = append(segs, templateSegment{literal: true, text: template[i:open]})
		}
		closeIdx := strings.IndexByte(template[open:], '}')
		if closeIdx < 0 {
			segs = append(segs, templateSegment{literal: true, text: template[open:]})
			break
		}
		closeIdx += open
		name := template[open+1 : closeIdx]
		segs = append(segs, templateSegment{literal: false, text: name})
		names = append(names, name)
		i = closeIdx + 1
	}
	return segs, names
}
