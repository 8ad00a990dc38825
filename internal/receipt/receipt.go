// Package receipt lays out a finalized sale as a printable receipt.
package receipt

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"pdvcaixa/internal/domain"
)

// Width is the number of columns of an 80mm thermal printer in font A.
const Width = 42

var (
	escInit    = []byte{0x1b, 0x40}
	escCut     = []byte{0x1d, 0x56, 0x41, 0x10}
	escDrawer  = []byte{0x1b, 0x70, 0x00, 0x19, 0xfa}
	escBoldOn  = []byte{0x1b, 0x45, 0x01}
	escBoldOff = []byte{0x1b, 0x45, 0x00}
	escCenter  = []byte{0x1b, 0x61, 0x01}
	escLeft    = []byte{0x1b, 0x61, 0x00}
)

type Header struct {
	StoreName string
	Address   string
	Document  string
	// Location is used for DATA/HORA. Nil prints UTC.
	Location  *time.Location
}

type Receipt struct {
	TransactionID string
	Lines         []string
	ESCPOS        []byte
}

func (r Receipt) Text() string {
	return strings.Join(r.Lines, "\n") + "\n"
}

func (r Receipt) FileName() string {
	return fmt.Sprintf("cupom-%s.bin", r.TransactionID)
}

// DrawerKick is the pulse that opens a cash drawer wired to the printer.
func DrawerKick() []byte {
	return append([]byte(nil), escDrawer...)
}

// Render builds the receipt for tx. It does not touch any state.
func Render(tx domain.Transaction, h Header) Receipt {
	loc := h.Location
	if loc == nil {
		loc = time.UTC
	}
	date := tx.Date.In(loc)
	rule := strings.Repeat("-", Width)

	var head []string
	head = append(head, "CUPOM FISCAL")
	for _, line := range []string{h.StoreName, h.Address} {
		if strings.TrimSpace(line) != "" {
			head = append(head, line)
		}
	}
	if strings.TrimSpace(h.Document) != "" {
		head = append(head, "CNPJ: "+h.Document)
	}

	body := []string{
		rule,
		fmt.Sprintf("DATA: %s HORA: %s", date.Format("02/01/2006"), date.Format("15:04:05")),
		"OPERADOR: " + tx.Operator,
		"TRANSACAO: " + tx.ID,
		rule,
		columns("QTD", "VL.UN", "VL.TOT"),
	}
	for i, item := range tx.Items {
		measure := item.Unit.Measure()
		body = append(body,
			fmt.Sprintf("ITEM %03d %s", i+1, item.Name),
			columns(
				measure.Format(item.Quantity)+string(item.Unit),
				item.Price.StringFixed(2),
				item.LineTotal().StringFixed(2),
			),
		)
	}
	body = append(body,
		rule,
		spread("QTD. TOTAL DE ITENS:", tx.ItemCount().StringFixed(3)),
	)
	total := spread("TOTAL R$:", tx.Total.StringFixed(2))
	tail := []string{spread("FORMA PAGAMENTO:", string(tx.PaymentMethod))}
	if tx.AmountReceived != nil {
		tail = append(tail, spread("VALOR RECEBIDO R$:", tx.AmountReceived.StringFixed(2)))
	}
	if tx.Change != nil {
		tail = append(tail, spread("TROCO R$:", tx.Change.StringFixed(2)))
	}
	if tx.PaymentReference != "" {
		tail = append(tail, "REF: "+tx.PaymentReference)
	}
	thanks := "OBRIGADO E VOLTE SEMPRE!"

	lines := make([]string, 0, len(head)+len(body)+len(tail)+4)
	for _, line := range head {
		lines = append(lines, center(line))
	}
	lines = append(lines, body...)
	lines = append(lines, total)
	lines = append(lines, tail...)
	lines = append(lines, rule, center(thanks))

	esc := append([]byte(nil), escInit...)
	esc = append(esc, escCenter...)
	esc = append(esc, escBoldOn...)
	esc = appendLine(esc, head[0])
	esc = append(esc, escBoldOff...)
	for _, line := range head[1:] {
		esc = appendLine(esc, line)
	}
	esc = append(esc, escLeft...)
	for _, line := range body {
		esc = appendLine(esc, line)
	}
	esc = append(esc, escBoldOn...)
	esc = appendLine(esc, total)
	esc = append(esc, escBoldOff...)
	for _, line := range tail {
		esc = appendLine(esc, line)
	}
	esc = appendLine(esc, rule)
	esc = append(esc, escCenter...)
	esc = appendLine(esc, thanks)
	esc = append(esc, '\n', '\n', '\n')
	esc = append(esc, escCut...)

	return Receipt{TransactionID: tx.ID, Lines: lines, ESCPOS: esc}
}

func appendLine(buf []byte, line string) []byte {
	buf = append(buf, line...)
	return append(buf, '\n')
}

func columns(qty, unitPrice, lineTotal string) string {
	return fmt.Sprintf("%14s%14s%14s", qty, unitPrice, lineTotal)
}

func spread(label, value string) string {
	gap := Width - utf8.RuneCountInString(label) - utf8.RuneCountInString(value)
	if gap < 1 {
		gap = 1
	}
	return label + strings.Repeat(" ", gap) + value
}

func center(s string) string {
	n := utf8.RuneCountInString(s)
	if n >= Width {
		return s
	}
	return strings.Repeat(" ", (Width-n)/2) + s
}
