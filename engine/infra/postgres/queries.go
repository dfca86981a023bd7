package postgres

// TaskHierarchyCTEQuery returns every task belonging to a run, including
// nested loop/subworkflow children at any depth.
const TaskHierarchyCTEQuery = `
		WITH RECURSIVE task_hierarchy AS (
			SELECT *
			FROM tasks
			WHERE run_id = $1 AND parent_task_id IS NULL

			UNION ALL

			SELECT t.*
			FROM tasks t
			INNER JOIN task_hierarchy th ON t.parent_task_id = th.id
			WHERE t.run_id = $1
		)
		SELECT * FROM task_hierarchy
`
