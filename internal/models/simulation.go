package models

type OrderDetail struct {
	OrderNumber     int           `json:"orderNumber"`
	CustomerName    string        `json:"customerName"`
	LoyaltyStatus   LoyaltyStatus `json:"loyaltyStatus"`
	IsRegular       bool          `json:"isRegular"`
	AssignedBarista *int          `json:"assignedBarista"`
	WaitTimeSeconds int64         `json:"waitTimeSeconds"`
	Status          string        `json:"status"`
	Drinks          []string      `json:"drinks"`
	ArrivalTime     string        `json:"arrivalTime"`
}

type TestCaseResult struct {
	TestCaseNumber     int           `json:"testCaseNumber"`
	TotalOrders        int           `json:"totalOrders"`
	ServedOrders       int           `json:"servedOrders"`
	AvgWaitTimeSeconds float64       `json:"avgWaitTimeSeconds"`
	BaristaOrders      []int         `json:"baristaOrders"`
	Complaints         int           `json:"complaints"`
	Abandoned          int           `json:"abandoned"`
	TimeoutRate        float64       `json:"timeoutRate"`     // percent
	AbandonmentRate    float64       `json:"abandonmentRate"` // percent
	Orders             []OrderDetail `json:"orders,omitempty"`
}

type SimulationSummary struct {
	TotalTestCases     int     `json:"totalTestCases"`
	TotalOrders        int     `json:"totalOrders"`
	AvgWaitTimeSeconds float64 `json:"avgWaitTimeSeconds"`
	TotalComplaints    int     `json:"totalComplaints"`
	TotalAbandoned     int     `json:"totalAbandoned"`
	AvgTimeoutRate     float64 `json:"avgTimeoutRate"`
	AvgAbandonRate     float64 `json:"avgAbandonRate"`
	Barista1Total      int     `json:"barista1Total"`
	Barista2Total      int     `json:"barista2Total"`
	Barista3Total      int     `json:"barista3Total"`
	WorkloadBalance    float64 `json:"workloadBalance"`
}
