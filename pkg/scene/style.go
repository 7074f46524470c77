package scene

import (
	"catamesh/pkg/color"
	"strconv"
	"strings"
)

func parseStyle(style string) map[string]string {
	m := map[string]string{}
	for _, pair := range strings.Split(style, ";") {
		kv := strings.SplitN(pair, ":", 2)
		if len(kv) == 2 {
			m[strings.TrimSpace(kv[0])] = strings.TrimSpace(kv[1])
		}
	}
	return m
}

// Style returns a style property, from the inline style or else from the
// presentation attribute of the same name.
func (n *Node) Style(name string) string {
	if v, ok := n.style[name]; ok {
		return v
	}
	return n.Attrs[name]
}

// StyleMap returns a copy of the resolved inline style.
func (n *Node) StyleMap() map[string]string {
	m := make(map[string]string, len(n.style))
	for k, v := range n.style {
		m[k] = v
	}
	return m
}

func (n *Node) opacity(name string) float64 {
	v := n.Style(name)
	if v == "" {
		return 1
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 1
	}
	return f
}

func (n *Node) paint(name string) *color.RGBA {
	v := n.Style(name)
	if v == "" || v == "none" {
		return nil
	}
	c, err := color.Parse(v, n.opacity(name+"-opacity"))
	if err != nil {
		return nil
	}
	return &c
}

// Colors resolves the fill and stroke colors. When only one of them is
// set it is used for both; both are nil when neither is.
func (n *Node) Colors() (fill, stroke *color.RGBA) {
	fill = n.paint("fill")
	stroke = n.paint("stroke")
	if fill == nil {
		fill = stroke
	}
	if stroke == nil {
		stroke = fill
	}
	return fill, stroke
}
