package mailer

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"voltshop_back_end/internal/models"
)

var statusLabels = map[models.OrderStatus]string{
	models.StatusPendingItems: "Обробляється",
	models.StatusPending:      "Очікує оплати",
	models.StatusConfirmed:    "Підтверджено",
	models.StatusPaid:         "Оплачено",
	models.StatusShipped:      "Відправлено",
	models.StatusDelivered:    "Доставлено",
	models.StatusCancelled:    "Скасовано",
}

func StatusLabel(s models.OrderStatus) string {
	if label, ok := statusLabels[s]; ok {
		return label
	}
	return string(s)
}

func statusSubject(s models.OrderStatus) string {
	switch s {
	case models.StatusPaid:
		return "✅ Оплату отримано - Voltshop"
	case models.StatusShipped:
		return "📦 Ваше замовлення відправлено - Voltshop"
	case models.StatusDelivered:
		return "🎉 Замовлення доставлено - Voltshop"
	case models.StatusCancelled:
		return "❌ Замовлення скасовано - Voltshop"
	default:
		return "📋 Оновлення замовлення - Voltshop"
	}
}

var orderTemplate = template.Must(template.New("order").Parse(`<!DOCTYPE html>
<html lang="uk">
<head><meta charset="UTF-8"><title>{{.Title}}</title></head>
<body style="font-family: Arial, sans-serif; background-color: #f9f9f9; padding: 20px;">
<div style="max-width: 600px; margin: auto; background-color: white; padding: 20px; border-radius: 10px;">
	<h2 style="color: #333;">{{.Title}}</h2>
	<p>{{.Greeting}}</p>
	<p>Замовлення <strong>№{{.Order.ID}}</strong>, статус: <strong>{{.Status}}</strong>.</p>
	{{if .Items}}
	<table style="width: 100%; border-collapse: collapse; margin: 20px 0;">
		<thead><tr style="background-color: #f0f0f0;">
			<th style="padding: 8px; text-align: left;">Товар</th>
			<th style="padding: 8px;">К-сть</th>
			<th style="padding: 8px;">Ціна</th>
			<th style="padding: 8px;">Сума</th>
		</tr></thead>
		<tbody>{{range .Items}}
		<tr><td style="padding: 8px;">{{.ProductName}}</td><td style="padding: 8px;">{{.Quantity}}</td>
		<td style="padding: 8px;">{{.UnitPrice.StringFixed 2}} ₴</td><td style="padding: 8px;">{{.Price.StringFixed 2}} ₴</td></tr>{{end}}
		</tbody>
	</table>
	{{end}}
	<p><strong>Разом: {{.Order.TotalAmount.StringFixed 2}} ₴</strong></p>
	<p>Доставка: {{.Order.City}}, {{.Order.DeliveryBranch}}</p>
	{{if .Link}}<p><a href="{{.Link}}">Переглянути замовлення</a></p>{{end}}
	<p style="margin-top: 30px; color: #555;">З повагою,<br><strong>Команда Voltshop</strong></p>
</div>
</body>
</html>`))

type orderView struct {
	Title    string
	Greeting string
	Status   string
	Order    models.Order
	Items    []models.OrderItem
	Link     string
}

func renderOrder(v orderView) (string, error) {
	var buf bytes.Buffer
	if err := orderTemplate.Execute(&buf, v); err != nil {
		return "", fmt.Errorf("rendu du template: %w", err)
	}
	return buf.String(), nil
}

func renderText(v orderView) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n\n%s\n", v.Title, v.Greeting)
	fmt.Fprintf(&b, "Замовлення №%s, статус: %s\n", v.Order.ID, v.Status)
	for _, item := range v.Items {
		fmt.Fprintf(&b, "- %s × %d = %s ₴\n", item.ProductName, item.Quantity, item.Price.StringFixed(2))
	}
	fmt.Fprintf(&b, "Разом: %s ₴\n", v.Order.TotalAmount.StringFixed(2))
	if v.Link != "" {
		fmt.Fprintf(&b, "%s\n", v.Link)
	}
	return b.String()
}
