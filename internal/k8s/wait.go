package k8s

import (
	"context"
	"errors"
	"fmt"

	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/util/wait"

	"github.com/imamik/k3stage/internal/util/retry"
)

// poll runs cond at the policy interval until it succeeds or the policy
// timeout elapses. A zero timeout waits until ctx ends. Expiry is reported as
// retry.ErrTimeout with the last observed problem.
func poll(ctx context.Context, policy retry.PollPolicy, cond func(ctx context.Context) (bool, error)) error {
	interval := policy.Interval
	if interval <= 0 {
		interval = retry.DefaultPollPolicy(0).Interval
	}

	var lastErr error
	wrapped := func(ctx context.Context) (bool, error) {
		done, err := cond(ctx)
		if err != nil {
			lastErr = err
			return false, nil
		}
		return done, nil
	}

	var err error
	if policy.Timeout > 0 {
		err = wait.PollUntilContextTimeout(ctx, interval, policy.Timeout, true, wrapped)
	} else {
		err = wait.PollUntilContextCancel(ctx, interval, true, wrapped)
	}
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return fmt.Errorf("poll cancelled: %w", ctx.Err())
	}
	if wait.Interrupted(err) {
		if lastErr != nil {
			return fmt.Errorf("%w after %v: %w", retry.ErrTimeout, policy.Timeout, lastErr)
		}
		return fmt.Errorf("%w after %v", retry.ErrTimeout, policy.Timeout)
	}
	return err
}

// WaitForAPIReady waits for the API server to report ready.
func (c *Client) WaitForAPIReady(ctx context.Context, policy retry.PollPolicy) error {
	err := poll(ctx, policy, func(ctx context.Context) (bool, error) {
		if err := c.probe(ctx); err != nil {
			return false, err
		}
		return true, nil
	})
	if err != nil {
		return fmt.Errorf("API server not ready: %w", err)
	}
	return nil
}

// WaitForNodeReady waits for the named node to report the Ready condition.
func (c *Client) WaitForNodeReady(ctx context.Context, name string, policy retry.PollPolicy) error {
	err := poll(ctx, policy, func(ctx context.Context) (bool, error) {
		n, err := c.Clientset.CoreV1().Nodes().Get(ctx, name, metav1.GetOptions{})
		if err != nil {
			return false, err
		}
		if !isNodeReady(n) {
			return false, fmt.Errorf("node %s registered but not Ready", name)
		}
		return true, nil
	})
	if err != nil {
		return fmt.Errorf("node %s not ready: %w", name, err)
	}
	return nil
}

// WaitForNodeRegistered waits for the named node object to exist. It does
// not look at conditions: a node without a CNI stays NotReady.
func (c *Client) WaitForNodeRegistered(ctx context.Context, name string, policy retry.PollPolicy) error {
	err := poll(ctx, policy, func(ctx context.Context) (bool, error) {
		if _, err := c.Clientset.CoreV1().Nodes().Get(ctx, name, metav1.GetOptions{}); err != nil {
			return false, err
		}
		return true, nil
	})
	if err != nil {
		return fmt.Errorf("node %s not registered: %w", name, err)
	}
	return nil
}

// WaitForDaemonSetReady waits until every DaemonSet matching selector has all
// desired pods ready.
func (c *Client) WaitForDaemonSetReady(ctx context.Context, namespace, selector string, policy retry.PollPolicy) error {
	err := poll(ctx, policy, func(ctx context.Context) (bool, error) {
		list, err := c.Clientset.AppsV1().DaemonSets(namespace).List(ctx, metav1.ListOptions{LabelSelector: selector})
		if err != nil {
			return false, err
		}
		if len(list.Items) == 0 {
			return false, errNoMatch(namespace, selector)
		}
		for i := range list.Items {
			if !isDaemonSetReady(&list.Items[i]) {
				ds := &list.Items[i]
				return false, fmt.Errorf("daemonset %s: %d/%d ready", ds.Name,
					ds.Status.NumberReady, ds.Status.DesiredNumberScheduled)
			}
		}
		return true, nil
	})
	if err != nil {
		return fmt.Errorf("daemonset %s in %s not ready: %w", selector, namespace, err)
	}
	return nil
}

// WaitForDeploymentReady waits until every Deployment matching selector is
// fully available.
func (c *Client) WaitForDeploymentReady(ctx context.Context, namespace, selector string, policy retry.PollPolicy) error {
	err := poll(ctx, policy, func(ctx context.Context) (bool, error) {
		list, err := c.Clientset.AppsV1().Deployments(namespace).List(ctx, metav1.ListOptions{LabelSelector: selector})
		if err != nil {
			return false, err
		}
		if len(list.Items) == 0 {
			return false, errNoMatch(namespace, selector)
		}
		for i := range list.Items {
			if !isDeploymentReady(&list.Items[i]) {
				return false, fmt.Errorf("deployment %s not available", list.Items[i].Name)
			}
		}
		return true, nil
	})
	if err != nil {
		return fmt.Errorf("deployment %s in %s not ready: %w", selector, namespace, err)
	}
	return nil
}

var errNoWorkload = errors.New("no matching workload")

func errNoMatch(namespace, selector string) error {
	return fmt.Errorf("%w for %s in %s", errNoWorkload, selector, namespace)
}

// isNodeReady checks the node's Ready condition.
func isNodeReady(n *corev1.Node) bool {
	for _, cond := range n.Status.Conditions {
		if cond.Type == corev1.NodeReady {
			return cond.Status == corev1.ConditionTrue
		}
	}
	return false
}

// isDaemonSetReady checks if a daemonset is ready.
func isDaemonSetReady(daemonSet *appsv1.DaemonSet) bool {
	return daemonSet.Status.DesiredNumberScheduled > 0 &&
		daemonSet.Status.NumberReady == daemonSet.Status.DesiredNumberScheduled
}

// isDeploymentReady checks if a deployment is ready.
func isDeploymentReady(deployment *appsv1.Deployment) bool {
	want := int32(1)
	if deployment.Spec.Replicas != nil {
		want = *deployment.Spec.Replicas
	}
	return deployment.Status.UpdatedReplicas >= want &&
		deployment.Status.AvailableReplicas >= want
}
