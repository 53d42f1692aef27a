// Package model содержит доменные сущности шлюза отгрузок.
package model

// Credentials содержит учётные данные пользователя для входа или регистрации.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Token представляет bearer-токен, выданный одним из внешних API.
type Token struct {
	Token     string `json:"token"`
	ExpiresIn int64  `json:"expiresIn,omitempty"`
}

// UserRecord описывает зарегистрированного пользователя основного API.
type UserRecord struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// ProductDetails содержит описание и физические характеристики товара.
type ProductDetails struct {
	Description string  `json:"P_Description"`
	ReleaseDate string  `json:"P_Release_Date,omitempty"`
	Height      float64 `json:"P_Height,omitempty"`
	Width       float64 `json:"P_Width,omitempty"`
	Depth       float64 `json:"P_Depth,omitempty"`
	Weight      float64 `json:"P_Weight,omitempty"`
}

// Product описывает позицию каталога товаров основного API.
type Product struct {
	ID   int64  `json:"Product_ID"`
	Name string `json:"Product_Name"`
}

// StockOnHand содержит складские остатки товара по категориям.
type StockOnHand struct {
	Available int64 `json:"Available"`
	Pending   int64 `json:"Pending"`
	Awaiting  int64 `json:"Awaiting"`
}

// ProductStatus описывает полное состояние товара, включая остатки.
type ProductStatus struct {
	Name            string         `json:"Product_Name"`
	Details         ProductDetails `json:"Product_Details"`
	SOH             StockOnHand    `json:"SOH"`
	LastStockUpdate string         `json:"Last_Stock_Update"`
}

// Address содержит адрес доставки в контактной информации отгрузки.
type Address struct {
	Street         string `json:"Street"`
	BuildingName   string `json:"Building_Name,omitempty"`
	BuildingNumber string `json:"Building_Number,omitempty"`
	City           string `json:"City"`
	PostalCode     string `json:"Postal_Code"`
	Country        string `json:"Country"`
}

// ContactInformation содержит контактные данные получателя отгрузки.
type ContactInformation struct {
	Email   string  `json:"Email"`
	Phone   string  `json:"Phone"`
	Address Address `json:"Address"`
}

// OrderDetails содержит реквизиты заказа, по которому создаётся отгрузка.
type OrderDetails struct {
	OrderID      int64  `json:"Order_ID"`
	SalesOrderID string `json:"Sales_Order_ID"`
	IssueDate    string `json:"Issue_Date"`
}

// OrderProduct описывает товарную позицию заказа на отгрузку.
type OrderProduct struct {
	ProductID int64 `json:"Product_ID"`
	Quantity  int64 `json:"Quantity"`
}

// DespatchRequest описывает запрос на создание извещения об отгрузке.
type DespatchRequest struct {
	ContactInformation ContactInformation `json:"Contact_Information"`
	OrderDetails       OrderDetails       `json:"Order_Details"`
	Products           []OrderProduct     `json:"Products"`
}

// DespatchEntry описывает запись реестра отгрузок.
type DespatchEntry struct {
	DespatchID string `json:"Despatch_ID"`
	Status     string `json:"Status"`
	IssueDate  string `json:"Issue_Date"`
}

// InvoiceItem описывает строку счёта: наименование, количество и цену за единицу.
type InvoiceItem struct {
	Name  string  `json:"name"`
	Count int64   `json:"count"`
	Cost  float64 `json:"cost"`
}

// Invoice представляет счёт, отправляемый во внешний счётный API.
// Инвариант: Total равен сумме Cost*Count по всем позициям, Count всегда >= 1.
type Invoice struct {
	InvoiceID  string        `json:"invoiceId"`
	Supplier   string        `json:"supplier"`
	Buyer      string        `json:"buyer"`
	Total      float64       `json:"total"`
	Currency   string        `json:"currency"`
	IssueDate  string        `json:"issueDate"`
	Items      []InvoiceItem `json:"items"`
	BuyerEmail string        `json:"buyerEmail,omitempty"`
	BuyerPhone string        `json:"buyerPhone,omitempty"`
}

// StockSummary содержит суммарные складские остатки по всем товарам.
type StockSummary struct {
	Available int64 `json:"available"`
	Pending   int64 `json:"pending"`
	Awaiting  int64 `json:"awaiting"`
}

// Dashboard содержит сводные показатели для главной страницы.
type Dashboard struct {
	ProductCount     int             `json:"productCount"`
	Stock            StockSummary    `json:"stock"`
	RecentDespatches []DespatchEntry `json:"recentDespatches"`
}

// SendResult описывает итог отправки отгрузки и побочного выставления счёта.
// Сбой счётной цепочки не отменяет успешную отправку, поэтому ошибка
// возвращается отдельным полем.
type SendResult struct {
	Message      string `json:"message"`
	InvoiceID    string `json:"invoiceId,omitempty"`
	InvoiceError string `json:"invoiceError,omitempty"`
}
