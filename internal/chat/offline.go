package chat

import "strings"

type rule struct {
	keywords []string
	answer   string
}

// 顺序即优先级，先命中先返回。
var offlineRules = []rule{
	{
		keywords: []string{"build", "pc", "cấu hình", "gaming", "cpu", "gpu"},
		answer:   "You can assemble a PC in the Build section: pick a CPU first and we will suggest compatible parts. Games list their minimum requirements so you can compare.",
	},
	{
		keywords: []string{"payment", "pay", "deposit", "qr", "thanh toán", "đặt cọc"},
		answer:   "Orders are confirmed with a 50,000 VND deposit paid by scanning the VietQR code on the payment page. The remaining balance is settled on delivery.",
	},
	{
		keywords: []string{"ship", "delivery", "giao hàng"},
		answer:   "We deliver nationwide. Staff will call the phone number on your profile to confirm the delivery address after the deposit is received.",
	},
	{
		keywords: []string{"warranty", "bảo hành", "return"},
		answer:   "All components carry the manufacturer's warranty. Contact support with your order id for warranty or return requests.",
	},
}

const defaultAnswer = "Our assistant is offline right now. Ask about builds, payment, shipping or warranty, or leave a message and staff will get back to you."

// Offline 按关键词表生成离线回复。
func Offline(message string) string {
	m := strings.ToLower(message)
	for _, r := range offlineRules {
		for _, k := range r.keywords {
			if strings.Contains(m, k) {
				return r.answer
			}
		}
	}
	return defaultAnswer
}
