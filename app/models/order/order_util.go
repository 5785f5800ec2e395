package order

// Status 订单状态
// pending → paid → notified 为唯一的推进链路，pending → failed 为终态分支。
// paid / notified / failed 对回调处理而言都是终态
const (
	StatusPending  = "pending"  // 待支付
	StatusPaid     = "paid"     // 已支付，通知未完成
	StatusNotified = "notified" // 已支付且已通知，终态
	StatusFailed   = "failed"   // 已失败，终态
)

// 订单类型
const (
	TypeNew          = 1 // 新购
	TypeRenew        = 2 // 续费
	TypeChange       = 3 // 变更套餐
	TypeResetTraffic = 4 // 重置流量
)

// 订购周期
const (
	PeriodMonth    = "month_price"
	PeriodQuarter  = "quarter_price"
	PeriodHalfYear = "half_year_price"
	PeriodYear     = "year_price"
	PeriodOnetime  = "onetime_price"
)

// PeriodMonths 订购周期对应的月数，一次性流量包为 0
func (o *Order) PeriodMonths() int {
	switch o.Period {
	case PeriodMonth:
		return 1
	case PeriodQuarter:
		return 3
	case PeriodHalfYear:
		return 6
	case PeriodYear:
		return 12
	default:
		return 0
	}
}

// IsPending 是否待支付
func (o *Order) IsPending() bool {
	return o.Status == StatusPending
}

// IsSettled 是否已完成支付（含已通知）
func (o *Order) IsSettled() bool {
	return o.Status == StatusPaid || o.Status == StatusNotified
}

// PlanNameWithType 根据订单类型给套餐名加标识，用于通知文案
func (o *Order) PlanNameWithType() string {
	switch o.Type {
	case TypeNew:
		return o.PlanName + "（新购）"
	case TypeRenew:
		return o.PlanName + "（续费）"
	case TypeChange:
		return o.PlanName + "（变更）"
	case TypeResetTraffic:
		return o.PlanName + "（重置流量）"
	default:
		return o.PlanName
	}
}
