package domain

import "sort"

// FindHighRiskCustomers отбирает клиентов, требующих вмешательства,
// и упорядочивает их по убыванию балла риска. Сортировка стабильная:
// при равных баллах сохраняется порядок входного списка, чтобы очередь
// работ была воспроизводимой. Входной список не изменяется.
func FindHighRiskCustomers(customers []*Customer) []*Customer {
	highRisk := make([]*Customer, 0, len(customers))
	for _, c := range customers {
		if c.RequiresIntervention() {
			highRisk = append(highRisk, c)
		}
	}

	sort.SliceStable(highRisk, func(i, j int) bool {
		return highRisk[i].CalculateRiskScore() > highRisk[j].CalculateRiskScore()
	})

	return highRisk
}
