// Package chart рисует недельную сетку опроса доступности в PNG.
package chart

import (
	"bytes"
	"fmt"
	"image/color"
	"sync"
	"time"

	"github.com/Freeeeeet/jamroom/internal/model"
	"github.com/fogleman/gg"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

// FontStyle начертание шрифта
type FontStyle string

const (
	FontStyleRegular FontStyle = ""
	FontStyleBold    FontStyle = "bold"
)

// Размеры и отступы
const (
	imageWidth       = 1400
	imageHeight      = 900
	headerHeight     = 100
	leftLabelsWidth  = 80
	legendWidth      = 140
	dayPaddingX      = 8
	slotBorderRadius = 6.0
	shadowOffset     = 3.0
	totalDaysInWeek  = 7
	hourPaddingTop   = 1
	hourPaddingBot   = 1
	defaultMinHour   = 10
	defaultMaxHour   = 22

	// SlotDuration высота блока слота на сетке
	SlotDuration = time.Hour
)

// Размеры шрифтов
const (
	titleFontSize      = 25.0
	dayFontSize        = 27.0
	hourLabelFontSize  = 18.0
	slotTimeFontSize   = 17.0
	legendItemFontSize = 12.0
)

// Цветовая схема
var (
	bgColor        = color.RGBA{245, 246, 248, 255}
	textColor      = color.RGBA{80, 85, 90, 220}
	hourLabelColor = color.RGBA{110, 115, 120, 200}
	hourLineColor  = color.NRGBA{150, 150, 150, 255}
	todayBgColor   = color.NRGBA{255, 99, 71, 125}
	evenDayColor   = color.NRGBA{240, 240, 240, 255}
	oddDayColor    = color.NRGBA{220, 220, 220, 255}

	slotFewColor     = color.RGBA{214, 234, 196, 230}
	slotManyColor    = color.RGBA{88, 160, 48, 240}
	slotTextColor    = color.RGBA{20, 24, 28, 230}
	slotShadowColor  = color.RGBA{0, 0, 0, 20}
	viewerVoteColor  = color.RGBA{52, 101, 164, 255}
	legendTitleColor = color.RGBA{90, 95, 100, 220}
	legendItemColor  = color.RGBA{70, 74, 78, 220}
)

type weekBounds struct {
	start time.Time
	end   time.Time // последний день недели, 00:00
}

type hourRange struct {
	start int
	end   int
	total int
}

var (
	fontsMu     sync.Mutex
	cachedFonts = make(map[FontStyle]*opentype.Font)
)

// loadFont ставит шрифт нужного размера; при ошибке разбора остаётся basicfont
func loadFont(dc *gg.Context, size float64, style FontStyle) {
	fontsMu.Lock()
	parsed, ok := cachedFonts[style]
	if !ok {
		data := goregular.TTF
		if style == FontStyleBold {
			data = gobold.TTF
		}
		var err error
		parsed, err = opentype.Parse(data)
		if err != nil {
			parsed = nil
		}
		cachedFonts[style] = parsed
	}
	fontsMu.Unlock()

	if parsed != nil {
		face, err := opentype.NewFace(parsed, &opentype.FaceOptions{
			Size:    size,
			DPI:     72,
			Hinting: font.HintingFull,
		})
		if err == nil {
			dc.SetFontFace(face)
			return
		}
	}
	dc.SetFontFace(basicfont.Face7x13)
}

// AvailabilityWeek рисует неделю, содержащую day. Каждый слот опроса
// занимает SlotDuration; цвет зависит от доли голосов относительно самого
// популярного слота недели, слоты с VotedByViewer обводятся рамкой.
func AvailabilityWeek(day time.Time, slots []*model.AvailabilitySlot, now time.Time) ([]byte, error) {
	week := normalizeToWeekBounds(day.UTC())
	today := normalizeToDay(now.UTC())
	highlightToday := !today.Before(week.start) && !today.After(week.end)

	inWeek := slotsInWeek(slots, week)
	hours := calculateHourRange(inWeek)
	maxVotes := 0
	for _, s := range inWeek {
		maxVotes = max(maxVotes, len(s.Voters))
	}

	dc := createCanvas()
	dayWidth := (imageWidth - leftLabelsWidth - legendWidth) / totalDaysInWeek
	dayHeight := imageHeight - headerHeight
	cellHeight := float64(dayHeight) / float64(hours.total)

	drawHeader(dc, week)
	drawHourLabels(dc, hours, cellHeight)

	for dayIndex := 0; dayIndex < totalDaysInWeek; dayIndex++ {
		date := week.start.AddDate(0, 0, dayIndex)
		x := float64(leftLabelsWidth + dayIndex*dayWidth)
		y := float64(headerHeight)

		drawDayBackground(dc, x, y, dayWidth, dayHeight, dayIndex, highlightToday && date.Equal(today))
		drawDayHeader(dc, date, x, y, dayWidth)
		drawHourLines(dc, x, y, dayWidth, hours, cellHeight)

		for _, slot := range inWeek {
			if normalizeToDay(slot.Time).Equal(date) {
				drawSlot(dc, slot, maxVotes, x, y, dayWidth, hours, cellHeight)
			}
		}
	}

	drawLegend(dc, dayWidth)
	return encodeImage(dc)
}

// normalizeToWeekBounds границы недели Пн-Вс
func normalizeToWeekBounds(date time.Time) weekBounds {
	normalized := normalizeToDay(date)

	daysSinceMonday := int(normalized.Weekday()) - 1
	if normalized.Weekday() == time.Sunday {
		daysSinceMonday = 6
	}

	start := normalized.AddDate(0, 0, -daysSinceMonday)
	return weekBounds{start: start, end: start.AddDate(0, 0, 6)}
}

func normalizeToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func slotsInWeek(slots []*model.AvailabilitySlot, week weekBounds) []*model.AvailabilitySlot {
	end := week.end.AddDate(0, 0, 1)
	var out []*model.AvailabilitySlot
	for _, s := range slots {
		t := s.Time.UTC()
		if !t.Before(week.start) && t.Before(end) {
			out = append(out, s)
		}
	}
	return out
}

// calculateHourRange диапазон часов по слотам недели с запасом сверху и снизу
func calculateHourRange(slots []*model.AvailabilitySlot) hourRange {
	minHour, maxHour := 24, 0
	for _, s := range slots {
		t := s.Time.UTC()
		endT := t.Add(SlotDuration)
		endH := endT.Hour()
		if endT.Minute() > 0 {
			endH++
		}
		if endT.Day() != t.Day() {
			endH = 24
		}
		minHour = min(minHour, t.Hour())
		maxHour = max(maxHour, endH)
	}

	if minHour == 24 {
		minHour, maxHour = defaultMinHour, defaultMaxHour
	}

	start := max(minHour-hourPaddingTop, 0)
	end := min(maxHour+hourPaddingBot, 23)
	return hourRange{start: start, end: end, total: end - start + 1}
}

func createCanvas() *gg.Context {
	dc := gg.NewContext(imageWidth, imageHeight)
	dc.SetColor(bgColor)
	dc.Clear()
	return dc
}

func drawHeader(dc *gg.Context, week weekBounds) {
	title := monthName(week.start.Month())
	if week.start.Month() != week.end.Month() {
		title += " - " + monthName(week.end.Month())
	}
	title += fmt.Sprintf(" %d", week.end.Year())

	loadFont(dc, titleFontSize, FontStyleBold)
	dc.SetColor(textColor)
	w, h := dc.MeasureString(title)
	dc.DrawStringAnchored(title, w/2+10, float64(headerHeight)/8+h/2, 0, 0)
}

func drawHourLabels(dc *gg.Context, hours hourRange, cellHeight float64) {
	loadFont(dc, hourLabelFontSize, FontStyleRegular)
	dc.SetColor(hourLabelColor)

	for i := 0; i < hours.total; i++ {
		y := float64(headerHeight) + float64(i)*cellHeight
		dc.DrawStringAnchored(fmt.Sprintf("%02d:00", hours.start+i), float64(leftLabelsWidth)-10, y, 1, 0.5)
	}
}

func drawDayBackground(dc *gg.Context, x, y float64, dayWidth, dayHeight, dayIndex int, isToday bool) {
	switch {
	case isToday:
		dc.SetColor(todayBgColor)
	case dayIndex%2 == 0:
		dc.SetColor(evenDayColor)
	default:
		dc.SetColor(oddDayColor)
	}
	dc.DrawRectangle(x, y, float64(dayWidth), float64(dayHeight))
	dc.Fill()
}

func drawDayHeader(dc *gg.Context, date time.Time, x, y float64, dayWidth int) {
	loadFont(dc, dayFontSize, FontStyleBold)
	dc.SetColor(textColor)
	dc.DrawStringAnchored(date.Format("02.01"), x+float64(dayWidth)/2, y, 0.5, -1)
	dc.DrawStringAnchored(weekdayShort(date.Weekday()), x+float64(dayWidth)/2, y, 0.5, -0.2)
}

func drawHourLines(dc *gg.Context, x, y float64, dayWidth int, hours hourRange, cellHeight float64) {
	dc.SetLineWidth(0.3)
	dc.SetColor(hourLineColor)

	for i := 0; i <= hours.total; i++ {
		hy := y + float64(i)*cellHeight
		dc.DrawLine(x, hy, x+float64(dayWidth), hy)
		dc.Stroke()
	}
}

func drawSlot(dc *gg.Context, slot *model.AvailabilitySlot, maxVotes int, x, y float64, dayWidth int, hours hourRange, cellHeight float64) {
	t := slot.Time.UTC()
	startHour := float64(t.Hour()) + float64(t.Minute())/60.0
	slotY := y + (startHour-float64(hours.start))*cellHeight
	slotHeight := SlotDuration.Hours() * cellHeight
	slotWidth := float64(dayWidth) - float64(dayPaddingX*2)

	fill := voteColor(len(slot.Voters), maxVotes)

	dc.SetColor(slotShadowColor)
	dc.DrawRoundedRectangle(x+dayPaddingX+shadowOffset, slotY+2+shadowOffset, slotWidth, slotHeight-4, slotBorderRadius)
	dc.Fill()

	dc.SetColor(fill)
	dc.DrawRoundedRectangle(x+dayPaddingX, slotY+2, slotWidth, slotHeight-4, slotBorderRadius)
	dc.Fill()

	if slot.VotedByViewer {
		dc.SetColor(viewerVoteColor)
		dc.SetLineWidth(3)
	} else {
		dc.SetColor(darkenColor(fill, 0.8))
		dc.SetLineWidth(1)
	}
	dc.DrawRoundedRectangle(x+dayPaddingX, slotY+2, slotWidth, slotHeight-4, slotBorderRadius)
	dc.Stroke()

	loadFont(dc, slotTimeFontSize, FontStyleBold)
	dc.SetColor(slotTextColor)
	txtX := x + dayPaddingX + 8
	txtY := slotY + 18
	dc.DrawStringAnchored(t.Format("15:04"), txtX, txtY, 0, 0)

	if slotHeight > 25 {
		loadFont(dc, slotTimeFontSize-2, FontStyleRegular)
		votes := len(slot.Voters)
		dc.DrawStringAnchored(fmt.Sprintf("%d %s", votes, PluralizeVotes(votes)), txtX, txtY+16, 0, 0)
	}
}

// voteColor линейно смешивает цвета от «мало» до «много» голосов
func voteColor(votes, maxVotes int) color.RGBA {
	if maxVotes <= 1 {
		return slotManyColor
	}
	k := float64(votes-1) / float64(maxVotes-1)
	mix := func(a, b uint8) uint8 { return uint8(float64(a) + (float64(b)-float64(a))*k) }
	return color.RGBA{
		R: mix(slotFewColor.R, slotManyColor.R),
		G: mix(slotFewColor.G, slotManyColor.G),
		B: mix(slotFewColor.B, slotManyColor.B),
		A: mix(slotFewColor.A, slotManyColor.A),
	}
}

func darkenColor(c color.RGBA, factor float64) color.RGBA {
	return color.RGBA{
		R: uint8(float64(c.R) * factor),
		G: uint8(float64(c.G) * factor),
		B: uint8(float64(c.B) * factor),
		A: c.A,
	}
}

func drawLegend(dc *gg.Context, dayWidth int) {
	legendX := float64(leftLabelsWidth + totalDaysInWeek*dayWidth + 10)
	legendY := float64(imageHeight) - 110.0

	loadFont(dc, legendItemFontSize, FontStyleBold)
	dc.SetColor(legendTitleColor)
	dc.DrawStringAnchored("Голоса", legendX, legendY, 0, 0)

	items := []struct {
		label  string
		clr    color.Color
		filled bool
	}{
		{"Мало", slotFewColor, true},
		{"Много", slotManyColor, true},
		{"Ваш голос", viewerVoteColor, false},
	}

	const boxW, boxH = 20.0, 14.0
	liY := legendY + 22

	for _, item := range items {
		dc.SetColor(item.clr)
		dc.DrawRoundedRectangle(legendX, liY, boxW, boxH, 3)
		if item.filled {
			dc.Fill()
		} else {
			dc.SetLineWidth(3)
			dc.Stroke()
		}

		loadFont(dc, legendItemFontSize, FontStyleRegular)
		dc.SetColor(legendItemColor)
		dc.DrawStringAnchored(item.label, legendX+boxW+8, liY+boxH/2+1, 0, 0.2)
		liY += boxH + 14
	}
}

func encodeImage(dc *gg.Context) ([]byte, error) {
	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

func weekdayShort(weekday time.Weekday) string {
	return [...]string{"Вс", "Пн", "Вт", "Ср", "Чт", "Пт", "Сб"}[weekday]
}

func monthName(month time.Month) string {
	return [...]string{
		"Январь", "Февраль", "Март", "Апрель", "Май", "Июнь",
		"Июль", "Август", "Сентябрь", "Октябрь", "Ноябрь", "Декабрь",
	}[month-1]
}
