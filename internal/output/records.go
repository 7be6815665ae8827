package output

import (
	"fmt"

	"github.com/chrisdamba/brewqueue/internal/models"
)

// OrderRecord is one simulated order, flattened for columnar export.
type OrderRecord struct {
	Timestamp       int64  `json:"timestamp" parquet:"name=timestamp,type=INT64"`
	RunID           string `json:"runId" parquet:"name=runId,type=BYTE_ARRAY,convertedtype=UTF8"`
	TestCaseNumber  int32  `json:"testCaseNumber" parquet:"name=testCaseNumber,type=INT32"`
	OrderNumber     int32  `json:"orderNumber" parquet:"name=orderNumber,type=INT32"`
	ArrivalTime     string `json:"arrivalTime" parquet:"name=arrivalTime,type=BYTE_ARRAY,convertedtype=UTF8"`
	CustomerName    string `json:"customerName" parquet:"name=customerName,type=BYTE_ARRAY,convertedtype=UTF8"`
	LoyaltyStatus   string `json:"loyaltyStatus" parquet:"name=loyaltyStatus,type=BYTE_ARRAY,convertedtype=UTF8"`
	IsRegular       bool   `json:"isRegular" parquet:"name=isRegular,type=BOOLEAN"`
	AssignedBarista int32  `json:"assignedBarista" parquet:"name=assignedBarista,type=INT32"` // 0 when abandoned
	WaitTimeSeconds int64  `json:"waitTimeSeconds" parquet:"name=waitTimeSeconds,type=INT64"`
	Status          string `json:"status" parquet:"name=status,type=BYTE_ARRAY,convertedtype=UTF8"`
	Drinks          string `json:"drinks" parquet:"name=drinks,type=BYTE_ARRAY,convertedtype=UTF8"` // comma separated
}

// TestCaseRecord holds the aggregates of one test case.
type TestCaseRecord struct {
	Timestamp          int64   `json:"timestamp" parquet:"name=timestamp,type=INT64"`
	RunID              string  `json:"runId" parquet:"name=runId,type=BYTE_ARRAY,convertedtype=UTF8"`
	TestCaseNumber     int32   `json:"testCaseNumber" parquet:"name=testCaseNumber,type=INT32"`
	TotalOrders        int32   `json:"totalOrders" parquet:"name=totalOrders,type=INT32"`
	ServedOrders       int32   `json:"servedOrders" parquet:"name=servedOrders,type=INT32"`
	AvgWaitTimeSeconds float64 `json:"avgWaitTimeSeconds" parquet:"name=avgWaitTimeSeconds,type=DOUBLE"`
	Barista1Orders     int32   `json:"barista1Orders" parquet:"name=barista1Orders,type=INT32"`
	Barista2Orders     int32   `json:"barista2Orders" parquet:"name=barista2Orders,type=INT32"`
	Barista3Orders     int32   `json:"barista3Orders" parquet:"name=barista3Orders,type=INT32"`
	Complaints         int32   `json:"complaints" parquet:"name=complaints,type=INT32"`
	Abandoned          int32   `json:"abandoned" parquet:"name=abandoned,type=INT32"`
	TimeoutRate        float64 `json:"timeoutRate" parquet:"name=timeoutRate,type=DOUBLE"`
	AbandonmentRate    float64 `json:"abandonmentRate" parquet:"name=abandonmentRate,type=DOUBLE"`
}

// SummaryRecord wraps a simulation summary with its run metadata.
type SummaryRecord struct {
	Timestamp int64  `json:"timestamp" parquet:"name=timestamp,type=INT64"`
	RunID     string `json:"runId" parquet:"name=runId,type=BYTE_ARRAY,convertedtype=UTF8"`
	models.SimulationSummary
}

// summaryRow mirrors SummaryRecord with parquet-friendly column types.
type summaryRow struct {
	Timestamp          int64   `json:"timestamp" parquet:"name=timestamp,type=INT64"`
	RunID              string  `json:"runId" parquet:"name=runId,type=BYTE_ARRAY,convertedtype=UTF8"`
	TotalTestCases     int64   `json:"totalTestCases" parquet:"name=totalTestCases,type=INT64"`
	TotalOrders        int64   `json:"totalOrders" parquet:"name=totalOrders,type=INT64"`
	AvgWaitTimeSeconds float64 `json:"avgWaitTimeSeconds" parquet:"name=avgWaitTimeSeconds,type=DOUBLE"`
	TotalComplaints    int64   `json:"totalComplaints" parquet:"name=totalComplaints,type=INT64"`
	TotalAbandoned     int64   `json:"totalAbandoned" parquet:"name=totalAbandoned,type=INT64"`
	AvgTimeoutRate     float64 `json:"avgTimeoutRate" parquet:"name=avgTimeoutRate,type=DOUBLE"`
	AvgAbandonRate     float64 `json:"avgAbandonRate" parquet:"name=avgAbandonRate,type=DOUBLE"`
	Barista1Total      int64   `json:"barista1Total" parquet:"name=barista1Total,type=INT64"`
	Barista2Total      int64   `json:"barista2Total" parquet:"name=barista2Total,type=INT64"`
	Barista3Total      int64   `json:"barista3Total" parquet:"name=barista3Total,type=INT64"`
	WorkloadBalance    float64 `json:"workloadBalance" parquet:"name=workloadBalance,type=DOUBLE"`
}

// newRecord returns an empty row for the topic's parquet schema.
func newRecord(topic string) (interface{}, error) {
	switch topic {
	case models.TopicSimulationOrders:
		return new(OrderRecord), nil
	case models.TopicSimulationTestCases:
		return new(TestCaseRecord), nil
	case models.TopicSimulationSummary:
		return new(summaryRow), nil
	}
	return nil, fmt.Errorf("no parquet schema for topic: %s", topic)
}
