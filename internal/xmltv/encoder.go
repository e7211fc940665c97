package xmltv

import (
	"encoding/xml"
	"fmt"
	"io"

	"github.com/alorle/epg-grabber/internal/epg"
)

const defaultLang = "en"

// Options controls how guides are rendered.
type Options struct {
	Offset        Offset // appended to every start/stop timestamp
	GeneratorName string // generator-info-name on the root element, omitted when empty
	Lang          string // lang attribute on text elements, "en" when empty
}

// Encoder renders channel guides as an XMLTV document.
type Encoder struct {
	opts   Options
	guides []epg.Guide
}

// NewEncoder creates an Encoder with the given options.
func NewEncoder(opts Options) *Encoder {
	if opts.Lang == "" {
		opts.Lang = defaultLang
	}
	return &Encoder{opts: opts}
}

// AddGuide appends a guide. Guides are rendered in the order they are added.
func (e *Encoder) AddGuide(g epg.Guide) {
	e.guides = append(e.guides, g)
}

// Encode writes the complete document to w: the XML declaration, every
// <channel> element, then every <programme> element. Output is deterministic
// for a given sequence of guides. Failures wrap epg.ErrSerialization.
func (e *Encoder) Encode(w io.Writer) error {
	doc := e.build()

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return fmt.Errorf("%w: writing header: %v", epg.ErrSerialization, err)
	}

	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("%w: %v", epg.ErrSerialization, err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("%w: %v", epg.ErrSerialization, err)
	}

	if _, err := io.WriteString(w, "\n"); err != nil {
		return fmt.Errorf("%w: writing trailer: %v", epg.ErrSerialization, err)
	}
	return nil
}

// build assembles the document tree. Channels and programmes are derived from
// the same guide slice, so every programme references a declared channel.
func (e *Encoder) build() tvXML {
	doc := tvXML{
		GeneratorName: e.opts.GeneratorName,
		Channels:      make([]channelXML, 0, len(e.guides)),
	}

	for _, g := range e.guides {
		ch := g.Channel()
		c := channelXML{
			ID:           ch.ID(),
			DisplayNames: []textXML{{Lang: e.opts.Lang, Value: ch.Name()}},
		}
		if ch.Logo() != "" {
			c.Icon = &iconXML{Src: ch.Logo()}
		}
		doc.Channels = append(doc.Channels, c)
	}

	for _, g := range e.guides {
		channelID := g.Channel().ID()
		for _, p := range g.Programmes() {
			doc.Programmes = append(doc.Programmes, e.programme(channelID, p))
		}
	}

	return doc
}

func (e *Encoder) programme(channelID string, p epg.Programme) programmeXML {
	px := programmeXML{
		Start:   FormatTimestamp(p.Start(), e.opts.Offset),
		Stop:    FormatTimestamp(p.End(), e.opts.Offset),
		Channel: channelID,
		Title:   textXML{Lang: e.opts.Lang, Value: p.Title()},
	}
	if p.Description() != "" {
		px.Desc = &textXML{Lang: e.opts.Lang, Value: p.Description()}
	}
	for _, genre := range p.Genres() {
		px.Categories = append(px.Categories, textXML{Lang: e.opts.Lang, Value: genre})
	}
	if p.Episode() != "" {
		px.EpisodeNum = &episodeNumXML{System: "onscreen", Value: p.Episode()}
	}
	return px
}

// tvXML represents the root element of the XMLTV document.
// Field order matters: all channels are marshalled before any programme.
type tvXML struct {
	XMLName       xml.Name       `xml:"tv"`
	GeneratorName string         `xml:"generator-info-name,attr,omitempty"`
	Channels      []channelXML   `xml:"channel"`
	Programmes    []programmeXML `xml:"programme"`
}

// channelXML represents a channel element.
type channelXML struct {
	ID           string    `xml:"id,attr"`
	DisplayNames []textXML `xml:"display-name"`
	Icon         *iconXML  `xml:"icon"`
}

// iconXML represents an icon element with a src attribute.
type iconXML struct {
	Src string `xml:"src,attr"`
}

// programmeXML represents a programme element.
type programmeXML struct {
	Start      string         `xml:"start,attr"`
	Stop       string         `xml:"stop,attr"`
	Channel    string         `xml:"channel,attr"`
	Title      textXML        `xml:"title"`
	Desc       *textXML       `xml:"desc"`
	Categories []textXML      `xml:"category"`
	EpisodeNum *episodeNumXML `xml:"episode-num"`
}

// textXML is a text element carrying a lang attribute.
type textXML struct {
	Lang  string `xml:"lang,attr,omitempty"`
	Value string `xml:",chardata"`
}

type episodeNumXML struct {
	System string `xml:"system,attr"`
	Value  string `xml:",chardata"`
}
