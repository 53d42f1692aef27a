// Package mapper преобразует XML извещения об отгрузке в счёт для счётного API.
package mapper

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/beevik/etree"
	"go.uber.org/zap"

	"github.com/mmeshcher/despatch-gateway/internal/model"
)

// Ошибки валидации обязательных элементов извещения об отгрузке.
var (
	ErrMissingDespatchID  = errors.New("despatch ID is missing in the XML")
	ErrMissingIssueDate   = errors.New("issue date is missing in the XML")
	ErrMissingContactInfo = errors.New("contact information is missing in the XML")
	ErrNoProducts         = errors.New("no products found in the XML")
)

const (
	supplierName = "Crunchie Despatch System"
	buyerName    = "Customer"
	currencyCode = "AUD"

	// Единая цена за единицу товара. Каталог цен отсутствует,
	// поэтому каждая позиция оценивается одинаково.
	unitPrice = 100
)

// Mapper выполняет разбор XML извещения об отгрузке и сборку счёта.
type Mapper struct {
	logger *zap.Logger
}

// NewMapper создаёт преобразователь с указанным логгером.
func NewMapper(logger *zap.Logger) *Mapper {
	return &Mapper{logger: logger}
}

// despatchData содержит поля, извлечённые из извещения об отгрузке.
type despatchData struct {
	despatchID     string
	issueDate      string
	email          string
	phone          string
	street         string
	buildingName   string
	buildingNumber string
	country        string
	total          float64
	items          []model.InvoiceItem
}

// Map преобразует текст XML извещения об отгрузке в счёт.
// Отсутствие обязательных элементов является ошибкой; пустое имя товара
// и некорректное количество исправляются значениями по умолчанию
// с предупреждением в логе.
func (m *Mapper) Map(xmlText string) (*model.Invoice, error) {
	data, err := m.parseDespatchAdvice(xmlText)
	if err != nil {
		return nil, err
	}

	// Срок оплаты: 30 дней от даты выставления. В счёт пока не входит,
	// но вычисляется всегда, даже для нераспознаваемой даты.
	issued, parseErr := time.Parse("2006-01-02", data.issueDate)
	dueDate := issued.AddDate(0, 0, 30)
	if parseErr != nil {
		m.logger.Debug("issue date is not a calendar date, due date is nominal",
			zap.String("issueDate", data.issueDate),
			zap.String("dueDate", dueDate.Format("2006-01-02")))
	}

	inv := &model.Invoice{
		InvoiceID:  data.despatchID,
		Supplier:   supplierName,
		Buyer:      buyerName,
		Total:      data.total,
		Currency:   currencyCode,
		IssueDate:  data.issueDate,
		Items:      data.items,
		BuyerEmail: data.email,
		BuyerPhone: data.phone,
	}

	return inv, nil
}

func (m *Mapper) parseDespatchAdvice(xmlText string) (*despatchData, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromString(xmlText); err != nil {
		return nil, fmt.Errorf("failed to parse XML: %w", err)
	}

	data := &despatchData{}

	data.despatchID = elementText(&doc.Element, "ID")
	if data.despatchID == "" {
		return nil, ErrMissingDespatchID
	}

	issueDateRaw := elementText(&doc.Element, "IssueDate")
	if issueDateRaw == "" {
		return nil, ErrMissingIssueDate
	}
	// Из ISO-значения с временем берётся только датная часть
	data.issueDate, _, _ = strings.Cut(issueDateRaw, "T")

	contact := doc.FindElement("//ContactInformation")
	if contact == nil {
		return nil, ErrMissingContactInfo
	}
	data.email = elementText(contact, "Email")
	data.phone = elementText(contact, "Phone")

	// Адресный блок необязателен, страна по умолчанию — AU
	data.country = "AU"
	if address := contact.FindElement(".//Address"); address != nil {
		data.street = elementText(address, "Street")
		data.buildingName = elementText(address, "BuildingName")
		data.buildingNumber = elementText(address, "BuildingNumber")
		if countryEl := address.FindElement(".//Country"); countryEl != nil {
			countryRaw := strings.TrimSpace(countryEl.Text())
			if countryRaw == "Australia" {
				data.country = "AU"
			} else {
				data.country = countryRaw
			}
		}
	}

	products := doc.FindElements("//Product")
	if len(products) == 0 {
		return nil, ErrNoProducts
	}

	for i, product := range products {
		name := elementText(product, "ProductName")
		quantityRaw := elementText(product, "Quantity")

		quantity, err := strconv.ParseInt(quantityRaw, 10, 64)
		if err != nil {
			quantity = 0
		}

		if name == "" {
			m.logger.Warn("product has no name, using default", zap.Int("index", i))
			name = fmt.Sprintf("Product %d", i+1)
		}

		if quantity <= 0 {
			m.logger.Warn("product has invalid quantity, using 1",
				zap.String("product", name),
				zap.String("quantity", quantityRaw))
			quantity = 1
		}

		data.total += unitPrice * float64(quantity)
		data.items = append(data.items, model.InvoiceItem{
			Name:  name,
			Count: quantity,
			Cost:  unitPrice,
		})
	}

	return data, nil
}

// elementText возвращает текст первого вложенного элемента с указанным тегом
// или пустую строку, если такого элемента нет.
func elementText(parent *etree.Element, tag string) string {
	el := parent.FindElement(".//" + tag)
	if el == nil {
		return ""
	}
	return strings.TrimSpace(el.Text())
}
