// Package xcal renders iCalendar components in the xCal XML format of
// RFC 6321. It covers the property value types that appear in timezone
// definitions (text, date-time, utc-offset, recur); anything unrecognized
// is emitted as text, which xCal permits for unknown properties.
package xcal

import (
	"sort"
	"strings"

	"github.com/beevik/etree"
	"github.com/emersion/go-ical"
)

// Namespace is the xCal XML namespace.
const Namespace = "urn:ietf:params:xml:ns:icalendar-2.0"

// Marshal renders a component (and its children, recursively) as an xCal
// document rooted at <icalendar>.
func Marshal(comp *ical.Component) (*etree.Document, error) {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	root := doc.CreateElement("icalendar")
	root.CreateAttr("xmlns", Namespace)
	encodeComponent(root, comp)
	return doc, nil
}

func encodeComponent(parent *etree.Element, comp *ical.Component) {
	el := parent.CreateElement(strings.ToLower(comp.Name))

	names := make([]string, 0, len(comp.Props))
	for name := range comp.Props {
		names = append(names, name)
	}
	sort.Strings(names)

	if len(names) > 0 {
		props := el.CreateElement("properties")
		for _, name := range names {
			for _, p := range comp.Props[name] {
				encodeProp(props, p)
			}
		}
	}

	if len(comp.Children) > 0 {
		children := el.CreateElement("components")
		for _, child := range comp.Children {
			encodeComponent(children, child)
		}
	}
}

func encodeProp(parent *etree.Element, p ical.Prop) {
	el := parent.CreateElement(strings.ToLower(p.Name))
	switch p.Name {
	case ical.PropTimezoneOffsetFrom, ical.PropTimezoneOffsetTo:
		el.CreateElement("utc-offset").SetText(xcalOffset(p.Value))
	case ical.PropDateTimeStart, ical.PropDateTimeEnd, ical.PropRecurrenceDates:
		encodeDateTime(el, p.Value)
	case ical.PropRecurrenceRule:
		encodeRecur(el.CreateElement("recur"), p.Value)
	default:
		el.CreateElement("text").SetText(p.Value)
	}
}

// xcalOffset rewrites ±HHMM[SS] as ±HH:MM[:SS].
func xcalOffset(v string) string {
	if len(v) < 5 {
		return v
	}
	out := v[:3] + ":" + v[3:5]
	if len(v) >= 7 {
		out += ":" + v[5:7]
	}
	return out
}

// encodeDateTime rewrites iCalendar basic date/date-time values in the
// extended xCal form, one element per comma-separated value.
func encodeDateTime(el *etree.Element, v string) {
	for _, one := range strings.Split(v, ",") {
		one = strings.TrimSpace(one)
		if len(one) == 8 {
			el.CreateElement("date").SetText(one[:4] + "-" + one[4:6] + "-" + one[6:8])
			continue
		}
		if len(one) >= 15 && one[8] == 'T' {
			s := one[:4] + "-" + one[4:6] + "-" + one[6:8] +
				"T" + one[9:11] + ":" + one[11:13] + ":" + one[13:15]
			if strings.HasSuffix(one, "Z") {
				s += "Z"
			}
			el.CreateElement("date-time").SetText(s)
			continue
		}
		el.CreateElement("text").SetText(one)
	}
}

// encodeRecur splits a RRULE value into the per-part recur elements, e.g.
// FREQ=YEARLY;BYMONTH=3 becomes <freq>YEARLY</freq><bymonth>3</bymonth>.
// Multi-valued parts produce one element per value.
func encodeRecur(el *etree.Element, v string) {
	for _, part := range strings.Split(v, ";") {
		name, value, ok := strings.Cut(part, "=")
		if !ok || name == "" {
			continue
		}
		tag := strings.ToLower(name)
		for _, one := range strings.Split(value, ",") {
			el.CreateElement(tag).SetText(one)
		}
	}
}
