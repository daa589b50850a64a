// Package intent classifies free-text chat messages into bot commands.
package intent

// Kind identifies what a message asks the bot to do.
type Kind int

const (
	HelpOrUnknown Kind = iota
	RegisterTransaction
	MonthlyReport
	CategoryReport
	Balance
	Reset
)

var kindNames = map[Kind]string{
	HelpOrUnknown:       "help",
	RegisterTransaction: "register",
	MonthlyReport:       "monthly_report",
	CategoryReport:      "category_report",
	Balance:             "balance",
	Reset:               "reset",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Intent is the classified purpose of one inbound message.
// RawText is only set for RegisterTransaction.
type Intent struct {
	Kind    Kind
	RawText string
}
