package shared

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// Message keys for user-facing texts.
const (
	MsgValidation          = "validation"
	MsgValidationField     = "validation.field"
	MsgNotFound            = "not_found"
	MsgNotFoundEntity      = "not_found.entity"
	MsgConflict            = "conflict"
	MsgConflictField       = "conflict.field"
	MsgInsufficientStock   = "insufficient_stock"
	MsgInsufficientCashbox = "insufficient_cashbox"
	MsgInvalidStatus       = "invalid_status"
	MsgInternal            = "internal"
	MsgExpenseMirror       = "cashbox.expense_mirror"
	MsgExpenseRefund       = "cashbox.expense_refund"
	MsgSaleMirror          = "cashbox.sale_mirror"
	MsgSaleReversal        = "cashbox.sale_reversal"
	MsgPurchaseMirror      = "cashbox.purchase_mirror"
	MsgPurchaseReversal    = "cashbox.purchase_reversal"
	MsgPaymentMirror       = "cashbox.payment_mirror"
	MsgReportBalancesTitle = "report.balances_title"
	MsgReportCustomer      = "report.customer"
	MsgReportPhone         = "report.phone"
	MsgReportBalance       = "report.balance"
	MsgReportOutstanding   = "report.outstanding"
	MsgReportTotal         = "report.total"
	MsgReportGeneratedAt   = "report.generated_at"
)

var supportedLanguages = []language.Tag{language.Arabic, language.English}

var languageMatcher = language.NewMatcher(supportedLanguages)

var messages = catalog.NewBuilder(catalog.Fallback(language.Arabic))

func init() {
	entries := []struct {
		key string
		ar  string
		en  string
	}{
		{MsgValidation, "البيانات المدخلة غير صالحة", "invalid input"},
		{MsgValidationField, "الحقل %s: %s", "field %s: %s"},
		{MsgNotFound, "العنصر غير موجود", "resource not found"},
		{MsgNotFoundEntity, "%s غير موجود", "%s not found"},
		{MsgConflict, "تعارض في البيانات، حاول مرة أخرى", "conflicting update, please retry"},
		{MsgConflictField, "القيمة %s مستخدمة مسبقاً في %s", "value %s is already used for %s"},
		{MsgInsufficientStock, "الكمية غير متوفرة للمنتج %s (المتوفر %d، المطلوب %d)", "insufficient stock for product %s (available %d, requested %d)"},
		{MsgInsufficientCashbox, "رصيد الصندوق غير كافٍ (المتوفر %s، المطلوب %s)", "insufficient cashbox balance (available %s, requested %s)"},
		{MsgInvalidStatus, "لا يمكن تغيير الحالة من %s إلى %s", "cannot change status from %s to %s"},
		{MsgInternal, "حدث خطأ في الخادم", "internal server error"},
		{MsgExpenseMirror, "مصروف: %s", "expense: %s"},
		{MsgExpenseRefund, "استرجاع مصروف: %s", "expense refund: %s"},
		{MsgSaleMirror, "مبيعات - فاتورة %s", "sale - invoice %s"},
		{MsgSaleReversal, "إلغاء مبيعات - فاتورة %s", "sale reversal - invoice %s"},
		{MsgPurchaseMirror, "مشتريات - فاتورة %s", "purchase - invoice %s"},
		{MsgPurchaseReversal, "إلغاء مشتريات - فاتورة %s", "purchase reversal - invoice %s"},
		{MsgPaymentMirror, "دفعة %s", "payment %s"},
		{MsgReportBalancesTitle, "الأرصدة المتبقية على العملاء", "Customer remaining balances"},
		{MsgReportCustomer, "العميل", "Customer"},
		{MsgReportPhone, "الهاتف", "Phone"},
		{MsgReportBalance, "الرصيد", "Balance"},
		{MsgReportOutstanding, "الفواتير المفتوحة", "Open invoices"},
		{MsgReportTotal, "الإجمالي", "Total"},
		{MsgReportGeneratedAt, "تاريخ الإنشاء: %s", "Generated at: %s"},
	}
	for _, e := range entries {
		_ = messages.SetString(language.Arabic, e.key, e.ar)
		_ = messages.SetString(language.English, e.key, e.en)
	}
}

// Localizer renders catalog messages for one negotiated language.
type Localizer struct {
	tag     language.Tag
	printer *message.Printer
}

// NewLocalizer negotiates an Accept-Language header against the supported
// languages, falling back to the given default.
func NewLocalizer(acceptLanguage, fallback string) *Localizer {
	tag := matchLanguage(fallback)
	if acceptLanguage != "" {
		if tags, _, err := language.ParseAcceptLanguage(acceptLanguage); err == nil && len(tags) > 0 {
			if _, idx, conf := languageMatcher.Match(tags...); conf != language.No {
				tag = supportedLanguages[idx]
			}
		}
	}
	return &Localizer{tag: tag, printer: message.NewPrinter(tag, message.Catalog(messages))}
}

// Language returns the negotiated tag.
func (l *Localizer) Language() language.Tag {
	return l.tag
}

// T renders a message key with arguments.
func (l *Localizer) T(key string, args ...any) string {
	return l.printer.Sprintf(key, args...)
}

func matchLanguage(name string) language.Tag {
	tag, err := language.Parse(name)
	if err != nil {
		return language.Arabic
	}
	_, idx, conf := languageMatcher.Match(tag)
	if conf == language.No {
		return language.Arabic
	}
	return supportedLanguages[idx]
}
