package dailyreport

import "github.com/google/uuid"

// GroupByEmployee groups rows by author in a single pass. Groups appear in the
// order their first row appears, rows keep their input order inside a group,
// and the first row seen fixes the group's name and role. Employees are keyed
// by ID so two people sharing a display name get separate sections.
func GroupByEmployee(rows []ReportRow) []EmployeeGroup {
	groups := make([]EmployeeGroup, 0)
	index := make(map[uuid.UUID]int)
	for _, row := range rows {
		i, ok := index[row.EmployeeID]
		if !ok {
			i = len(groups)
			index[row.EmployeeID] = i
			groups = append(groups, EmployeeGroup{
				EmployeeID:   row.EmployeeID,
				EmployeeName: row.EmployeeName,
				EmployeeRole: row.EmployeeRole,
			})
		}
		groups[i].Reports = append(groups[i].Reports, row)
	}
	return groups
}
