package aws

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"github.com/shopspring/decimal"
)

// Metrics publishes order metrics to CloudWatch under a single namespace.
type Metrics struct {
	CloudWatch CloudWatchAPI
	Namespace  string
	nowFunc    func() time.Time
}

func NewMetrics(cw CloudWatchAPI, namespace string) *Metrics {
	return &Metrics{
		CloudWatch: cw,
		Namespace:  namespace,
		nowFunc:    time.Now,
	}
}

// RecordOrderPlaced emits OrdersPlaced (count), OrderValue (total) and
// OrderItems (units) for one order.
func (m *Metrics) RecordOrderPlaced(ctx context.Context, total decimal.Decimal, itemCount int) error {
	ts := m.nowFunc()
	input := &cloudwatch.PutMetricDataInput{
		Namespace: &m.Namespace,
		MetricData: []cwtypes.MetricDatum{
			{
				MetricName: awsString("OrdersPlaced"),
				Timestamp:  &ts,
				Unit:       cwtypes.StandardUnitCount,
				Value:      float64Ptr(1),
			},
			{
				MetricName: awsString("OrderValue"),
				Timestamp:  &ts,
				Unit:       cwtypes.StandardUnitNone,
				Value:      float64Ptr(total.InexactFloat64()),
			},
			{
				MetricName: awsString("OrderItems"),
				Timestamp:  &ts,
				Unit:       cwtypes.StandardUnitCount,
				Value:      float64Ptr(float64(itemCount)),
			},
		},
	}
	if _, err := m.CloudWatch.PutMetricData(ctx, input); err != nil {
		return fmt.Errorf("put metric data: %w", err)
	}
	return nil
}

func float64Ptr(v float64) *float64 { return &v }
