package schema

import (
	"sync"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Formatter renders property values for display.
type Formatter interface {
	FormatInteger(v int64) string
	FormatNumber(v float64, precision int) string
	FormatDate(t time.Time) string
	FormatDateTime(t time.Time) string
	FormatBool(v bool) string
}

// dateLayouts per base language: date, datetime.
var dateLayouts = map[string][2]string{
	"en": {"01/02/2006", "01/02/2006 3:04 PM"},
	"de": {"02.01.2006", "02.01.2006 15:04"},
	"fr": {"02/01/2006", "02/01/2006 15:04"},
	"es": {"02/01/2006", "02/01/2006 15:04"},
	"it": {"02/01/2006", "02/01/2006 15:04"},
	"nl": {"02-01-2006", "02-01-2006 15:04"},
	"ru": {"02.01.2006", "02.01.2006 15:04"},
	"ja": {"2006/01/02", "2006/01/02 15:04"},
}

// LocaleFormatter formats numbers with golang.org/x/text and dates with a
// per-language layout, falling back to ISO layouts.
type LocaleFormatter struct {
	printer        *message.Printer
	dateLayout     string
	dateTimeLayout string
}

func NewFormatter(tag language.Tag) *LocaleFormatter {
	f := &LocaleFormatter{
		printer:        message.NewPrinter(tag),
		dateLayout:     DateLayout,
		dateTimeLayout: DateTimeLayout,
	}
	base, _ := tag.Base()
	if layouts, ok := dateLayouts[base.String()]; ok {
		f.dateLayout, f.dateTimeLayout = layouts[0], layouts[1]
	}
	return f
}

var (
	defaultFormatterOnce sync.Once
	defaultFormatter     Formatter
)

// DefaultFormatter formats for US English.
func DefaultFormatter() Formatter {
	defaultFormatterOnce.Do(func() {
		defaultFormatter = NewFormatter(language.AmericanEnglish)
	})
	return defaultFormatter
}

func (f *LocaleFormatter) FormatInteger(v int64) string {
	return f.printer.Sprintf("%v", number.Decimal(v))
}

func (f *LocaleFormatter) FormatNumber(v float64, precision int) string {
	return f.printer.Sprintf("%v", number.Decimal(v,
		number.MinFractionDigits(precision),
		number.MaxFractionDigits(precision)))
}

func (f *LocaleFormatter) FormatDate(t time.Time) string {
	return t.Format(f.dateLayout)
}

func (f *LocaleFormatter) FormatDateTime(t time.Time) string {
	return t.Format(f.dateTimeLayout)
}

func (f *LocaleFormatter) FormatBool(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}
