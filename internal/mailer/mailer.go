package mailer

import (
	"context"
	"fmt"
	"log"
	"strings"

	"voltshop_back_end/internal/models"

	"golang.org/x/sync/errgroup"
)

type Mailer struct {
	sender      Sender
	adminEmail  string
	frontendURL string
}

func New(sender Sender, adminEmail, frontendURL string) *Mailer {
	return &Mailer{sender: sender, adminEmail: adminEmail, frontendURL: strings.TrimRight(frontendURL, "/")}
}

func (m *Mailer) orderLink(o models.Order) string {
	if m.frontendURL == "" {
		return ""
	}
	return m.frontendURL + "/order/status?orderId=" + o.ID.String()
}

// SendOrderConfirmation envoie en parallèle l'e-mail client et l'e-mail admin.
// Un échec n'empêche pas l'autre envoi.
func (m *Mailer) SendOrderConfirmation(ctx context.Context, o models.Order, items []models.OrderItem) error {
	var g errgroup.Group

	g.Go(func() error {
		if o.CustomerEmail == "" {
			return nil
		}
		v := orderView{
			Title:    "Дякуємо за замовлення!",
			Greeting: "Вітаємо, " + o.CustomerName + "!",
			Status:   StatusLabel(o.Status),
			Order:    o,
			Items:    items,
			Link:     m.orderLink(o),
		}
		id, err := m.send(ctx, []string{o.CustomerEmail}, "✅ Замовлення прийнято - Voltshop", v)
		if err != nil {
			log.Printf("❌ E-mail de confirmation client non envoyé (commande %s): %v", o.ID, err)
			return err
		}
		log.Printf("📧 E-mail de confirmation envoyé: %s (commande: %s, id: %s)", o.CustomerEmail, o.ID, id)
		return nil
	})

	g.Go(func() error {
		if m.adminEmail == "" {
			return nil
		}
		v := orderView{
			Title:    "Нове замовлення",
			Greeting: fmt.Sprintf("%s, %s, %s", o.CustomerName, o.CustomerPhone, o.CustomerEmail),
			Status:   StatusLabel(o.Status),
			Order:    o,
			Items:    items,
		}
		if _, err := m.send(ctx, []string{m.adminEmail}, "🛒 Нове замовлення "+o.ID.String(), v); err != nil {
			log.Printf("❌ E-mail admin non envoyé (commande %s): %v", o.ID, err)
			return err
		}
		return nil
	})

	return g.Wait()
}

// SendStatusUpdate prévient le client d'un changement de statut
func (m *Mailer) SendStatusUpdate(ctx context.Context, o models.Order, status models.OrderStatus) (string, error) {
	if o.CustomerEmail == "" {
		return "", fmt.Errorf("commande %s sans e-mail client", o.ID)
	}
	v := orderView{
		Title:    "Статус замовлення: " + StatusLabel(status),
		Greeting: "Вітаємо, " + o.CustomerName + "!",
		Status:   StatusLabel(status),
		Order:    o,
		Link:     m.orderLink(o),
	}
	id, err := m.send(ctx, []string{o.CustomerEmail}, statusSubject(status), v)
	if err != nil {
		log.Printf("❌ Erreur envoi email statut: %v", err)
		return "", err
	}
	log.Printf("📧 Email de statut envoyé: %s → %s", status, o.CustomerEmail)
	return id, nil
}

// NotifyAdmin envoie une alerte texte à l'administrateur
func (m *Mailer) NotifyAdmin(ctx context.Context, subject, body string) error {
	if m.adminEmail == "" {
		log.Printf("⚠️ ADMIN_EMAIL absent, alerte non envoyée: %s", subject)
		return nil
	}
	_, err := m.sender.Send(ctx, Message{To: []string{m.adminEmail}, Subject: subject, Text: body})
	return err
}

func (m *Mailer) send(ctx context.Context, to []string, subject string, v orderView) (string, error) {
	html, err := renderOrder(v)
	if err != nil {
		return "", err
	}
	return m.sender.Send(ctx, Message{To: to, Subject: subject, HTML: html, Text: renderText(v)})
}
